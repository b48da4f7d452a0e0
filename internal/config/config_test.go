package config

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/ashwch/cunzhi/internal/appdirs"
	"github.com/pelletier/go-toml/v2"
)

func TestSetGetTelegramAndReplyKeys(t *testing.T) {
	cfg := Default()

	changes := map[string]string{
		"telegram.enabled":               "true",
		"telegram.hide_frontend_popup":   "yes",
		"telegram.chat_id":               " 12345 ",
		"telegram.api_base_url":          "http://localhost:8081/",
		"telegram.reply_timeout_seconds": "30",
		"reply.enable_continue":          "off",
		"ui.backend":                     "huh",
		"locale":                         "zh_cn",
	}
	for key, value := range changes {
		if err := cfg.Set(key, value); err != nil {
			t.Fatalf("set %s failed: %v", key, err)
		}
	}

	want := map[string]string{
		"telegram.enabled":               "true",
		"telegram.hide_frontend_popup":   "true",
		"telegram.chat_id":               "12345",
		"telegram.api_base_url":          "http://localhost:8081",
		"telegram.reply_timeout_seconds": "30",
		"reply.enable_continue":          "false",
		"ui.backend":                     "huh",
		"locale":                         "zh-CN",
	}
	for key, expected := range want {
		got, err := cfg.Get(key)
		if err != nil {
			t.Fatalf("get %s failed: %v", key, err)
		}
		if got != expected {
			t.Fatalf("%s: expected %q, got %q", key, expected, got)
		}
	}

	remote := cfg.RemoteResponder()
	if !remote.Enabled || !remote.SuppressLocalPopup {
		t.Fatalf("expected both remote flags set, got %+v", remote)
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	cfg := Default()
	cases := map[string]string{
		"ui.backend":                     "neon-ui",
		"telegram.enabled":               "maybe",
		"telegram.reply_timeout_seconds": "0",
		"reply.continue_prompt":          "   ",
		"locale":                         "%%bad-locale",
		"unknown.key":                    "x",
	}
	for key, value := range cases {
		if err := cfg.Set(key, value); err == nil {
			t.Fatalf("expected %s=%q to be rejected", key, value)
		}
	}
}

func TestDefaultKeepsRemoteResponderOff(t *testing.T) {
	cfg := Default()
	if cfg.Telegram.Enabled || cfg.Telegram.HideFrontendPopup {
		t.Fatalf("expected remote responder disabled by default")
	}
	if cfg.UI.Backend != "bubbletea" {
		t.Fatalf("expected default ui backend bubbletea, got %q", cfg.UI.Backend)
	}
	if cfg.Reply.ContinuePrompt == "" {
		t.Fatalf("expected default continue prompt")
	}
}

func TestLoadFillsDefaultsForPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[telegram]\nenabled = true\nbot_token = \" abc \"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Telegram.Enabled {
		t.Fatalf("expected telegram enabled")
	}
	if cfg.Telegram.BotToken != "abc" {
		t.Fatalf("expected trimmed bot token, got %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.APIBaseURL != DefaultTelegramAPIBase {
		t.Fatalf("expected default api base, got %q", cfg.Telegram.APIBaseURL)
	}
	if cfg.UI.Backend != "bubbletea" {
		t.Fatalf("expected default backend, got %q", cfg.UI.Backend)
	}
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	t.Setenv(appdirs.EnvConfigPath, path)

	cfg, gotPath, err := LoadOrCreate()
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if gotPath != path {
		t.Fatalf("expected path %q, got %q", path, gotPath)
	}
	if cfg.Version != 1 {
		t.Fatalf("expected version 1, got %d", cfg.Version)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
}

func TestSaveUsesPrivateFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not portable on windows")
	}

	cfg := Default()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config failed: %v", err)
	}
	if perms := info.Mode().Perm(); perms&0o077 != 0 {
		t.Fatalf("expected private permissions, got %o", perms)
	}
}

func TestSaveAtomicWriteProducesParseableConfigUnderConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			cfg := Default()
			cfg.Telegram.Enabled = idx%2 == 0
			if err := Save(path, cfg); err != nil {
				t.Errorf("save failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	bytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config failed: %v", err)
	}
	var parsed Config
	if err := toml.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("expected final config to be parseable TOML, got error: %v\ncontent:\n%s", err, string(bytes))
	}
}
