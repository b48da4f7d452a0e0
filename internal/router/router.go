package router

// Kind is the classified purpose of one invocation.
type Kind string

const (
	KindStartInteractive Kind = "start_interactive"
	KindShowHelp         Kind = "show_help"
	KindShowVersion      Kind = "show_version"
	KindHandleRequest    Kind = "handle_request"
)

const FlagMCPRequest = "--mcp-request"

// Intent is what the argument vector asks for. RequestPath is set only for
// KindHandleRequest.
type Intent struct {
	Kind        Kind
	RequestPath string
}

// Classify maps a full argument vector (program name first) to exactly one
// Intent. Only the first argument after the program name is inspected and
// anything unrecognized starts the interactive app. That includes
// --mcp-request with no path.
func Classify(args []string) Intent {
	if len(args) < 2 {
		return Intent{Kind: KindStartInteractive}
	}
	switch args[1] {
	case FlagMCPRequest:
		if len(args) >= 3 {
			return Intent{Kind: KindHandleRequest, RequestPath: args[2]}
		}
	case "--help", "-h":
		return Intent{Kind: KindShowHelp}
	case "--version", "-v":
		return Intent{Kind: KindShowVersion}
	}
	return Intent{Kind: KindStartInteractive}
}
