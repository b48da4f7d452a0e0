package router

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want Intent
	}{
		{name: "empty vector", args: nil, want: Intent{Kind: KindStartInteractive}},
		{name: "program only", args: []string{"cunzhi"}, want: Intent{Kind: KindStartInteractive}},
		{name: "mcp request", args: []string{"cunzhi", "--mcp-request", "/tmp/req.json"}, want: Intent{Kind: KindHandleRequest, RequestPath: "/tmp/req.json"}},
		{name: "mcp request extra args", args: []string{"cunzhi", "--mcp-request", "a b.json", "--help"}, want: Intent{Kind: KindHandleRequest, RequestPath: "a b.json"}},
		{name: "mcp request without path", args: []string{"cunzhi", "--mcp-request"}, want: Intent{Kind: KindStartInteractive}},
		{name: "help long", args: []string{"cunzhi", "--help"}, want: Intent{Kind: KindShowHelp}},
		{name: "help short", args: []string{"cunzhi", "-h"}, want: Intent{Kind: KindShowHelp}},
		{name: "version long", args: []string{"cunzhi", "--version"}, want: Intent{Kind: KindShowVersion}},
		{name: "version short", args: []string{"cunzhi", "-v"}, want: Intent{Kind: KindShowVersion}},
		{name: "help not first", args: []string{"cunzhi", "settings", "--help"}, want: Intent{Kind: KindStartInteractive}},
		{name: "unknown flag", args: []string{"cunzhi", "--verbose"}, want: Intent{Kind: KindStartInteractive}},
		{name: "case sensitive", args: []string{"cunzhi", "--HELP"}, want: Intent{Kind: KindStartInteractive}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.args); got != tc.want {
				t.Fatalf("Classify(%q)=%+v want %+v", tc.args, got, tc.want)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	args := []string{"cunzhi", "--mcp-request", "/tmp/req.json"}
	first := Classify(args)
	second := Classify(args)
	if first != second {
		t.Fatalf("expected identical intents, got %+v and %+v", first, second)
	}
	if args[2] != "/tmp/req.json" {
		t.Fatalf("Classify must not mutate its input")
	}
}

func TestClassifyAnyRequestPath(t *testing.T) {
	paths := []string{"/tmp/req.json", "relative.json", "with space.json", "C:\\req.json", "-h", "--version"}
	for _, path := range paths {
		got := Classify([]string{"cunzhi", FlagMCPRequest, path})
		if got.Kind != KindHandleRequest || got.RequestPath != path {
			t.Fatalf("expected handle request for %q, got %+v", path, got)
		}
	}
}
