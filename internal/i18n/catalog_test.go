package i18n

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashwch/cunzhi/internal/appdirs"
)

func TestNormalizeLocale(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "en_US.UTF-8", want: "en-US"},
		{in: "zh_CN.UTF-8", want: "zh-CN"},
		{in: "fr", want: "fr"},
		{in: "pt_BR@latin", want: "pt-BR"},
		{in: "%%bad", want: ""},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizeLocale(tc.in); got != tc.want {
			t.Fatalf("NormalizeLocale(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestLoadCatalogChineseKeepsEnglishFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	catalog := LoadCatalog("zh-CN")
	if catalog.Locale != "zh-CN" {
		t.Fatalf("expected zh-CN locale, got %q", catalog.Locale)
	}
	if !strings.Contains(catalog.CLI.Title, "寸止") {
		t.Fatalf("expected chinese title, got %q", catalog.CLI.Title)
	}
	// no chinese key hint is defined, english stays in place
	if catalog.Popup.Keys == "" {
		t.Fatalf("expected english key hint fallback")
	}
}

func TestLoadCatalogUnknownLocaleUsesEnglish(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	catalog := LoadCatalog("de-DE")
	if !strings.HasPrefix(catalog.CLI.Version, "cunzhi v") {
		t.Fatalf("expected english version format, got %q", catalog.CLI.Version)
	}
}

func TestDetectLocalePrefersAppOverride(t *testing.T) {
	t.Setenv(EnvLocale, "zh_TW")
	t.Setenv("LANG", "en_US.UTF-8")
	if got := DetectLocale(); got != "zh-TW" {
		t.Fatalf("expected zh-TW, got %q", got)
	}
}

func TestLoadCatalogMergesCommunityOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	configDir, err := appdirs.ConfigDir()
	if err != nil {
		t.Fatalf("config dir failed: %v", err)
	}
	localesDir := filepath.Join(configDir, "locales")
	if err := os.MkdirAll(localesDir, 0o755); err != nil {
		t.Fatalf("mkdir locales failed: %v", err)
	}

	override := `{
	  "locale": "es-ES",
	  "cli": {"title": "cunzhi - punto de control"},
	  "popup": {"send": "Enviar"}
	}`
	if err := os.WriteFile(filepath.Join(localesDir, "es.json"), []byte(override), 0o644); err != nil {
		t.Fatalf("write locale override failed: %v", err)
	}

	catalog := LoadCatalog("es-ES")
	if catalog.Locale != "es-ES" {
		t.Fatalf("expected merged locale es-ES, got %q", catalog.Locale)
	}
	if catalog.CLI.Title != "cunzhi - punto de control" {
		t.Fatalf("expected spanish title, got %q", catalog.CLI.Title)
	}
	if catalog.Popup.Send != "Enviar" {
		t.Fatalf("expected spanish send label, got %q", catalog.Popup.Send)
	}
	if catalog.Popup.Cancel != "Cancel" {
		t.Fatalf("expected english cancel fallback, got %q", catalog.Popup.Cancel)
	}
	if len(catalog.CLI.Entries) != 4 {
		t.Fatalf("expected english usage entries to remain, got %d", len(catalog.CLI.Entries))
	}
}
