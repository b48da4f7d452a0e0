package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ashwch/cunzhi/internal/appdirs"
	"github.com/ashwch/cunzhi/internal/i18n"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultContinuePrompt   = "Please continue following best practices."
	DefaultTelegramAPIBase  = "https://api.telegram.org"
	DefaultReplyTimeoutSecs = 600
)

type UIConfig struct {
	Backend string `toml:"backend" json:"backend"`
}

type ReplyConfig struct {
	EnableContinue bool   `toml:"enable_continue" json:"enable_continue"`
	ContinuePrompt string `toml:"continue_prompt" json:"continue_prompt"`
}

type TelegramConfig struct {
	Enabled             bool   `toml:"enabled" json:"enabled"`
	HideFrontendPopup   bool   `toml:"hide_frontend_popup" json:"hide_frontend_popup"`
	BotToken            string `toml:"bot_token" json:"bot_token"`
	ChatID              string `toml:"chat_id" json:"chat_id"`
	APIBaseURL          string `toml:"api_base_url" json:"api_base_url"`
	ReplyTimeoutSeconds int    `toml:"reply_timeout_seconds" json:"reply_timeout_seconds"`
}

// Config is the full application state persisted in config.toml. Only the
// interactive path and the headless responder read all of it.
type Config struct {
	Version  int            `toml:"version" json:"version"`
	Locale   string         `toml:"locale" json:"locale"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Reply    ReplyConfig    `toml:"reply" json:"reply"`
	Telegram TelegramConfig `toml:"telegram" json:"telegram"`
}

func Default() Config {
	return Config{
		Version: 1,
		Locale:  "auto",
		UI: UIConfig{
			Backend: "bubbletea",
		},
		Reply: ReplyConfig{
			EnableContinue: true,
			ContinuePrompt: DefaultContinuePrompt,
		},
		Telegram: TelegramConfig{
			Enabled:             false,
			HideFrontendPopup:   false,
			APIBaseURL:          DefaultTelegramAPIBase,
			ReplyTimeoutSeconds: DefaultReplyTimeoutSecs,
		},
	}
}

func LoadOrCreate() (Config, string, error) {
	path, err := appdirs.ConfigFilePath()
	if err != nil {
		return Config{}, "", err
	}

	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return Config{}, "", err
		}
		return cfg, path, nil
	} else if err != nil {
		return Config{}, "", fmt.Errorf("could not stat config path: %w", err)
	}

	cfg, err = Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// Load reads and normalizes an existing config file.
func Load(path string) (Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config file: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func Save(path string, cfg Config) error {
	cfg.normalize()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := appdirs.EnsureDir(dir); err != nil {
		return err
	}
	tempFile, err := os.CreateTemp(dir, ".cunzhi-config-*.toml")
	if err != nil {
		return fmt.Errorf("could not create temp config file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}

	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not write temp config file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not secure temp config file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("could not close temp config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("could not atomically replace config file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("could not secure config file permissions: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()
	if c.Version == 0 {
		c.Version = defaults.Version
	}
	c.Locale = normalizeLocaleSetting(c.Locale, defaults.Locale)
	c.UI.Backend = normalizeUIBackend(c.UI.Backend, defaults.UI.Backend)
	if strings.TrimSpace(c.Reply.ContinuePrompt) == "" {
		c.Reply.ContinuePrompt = defaults.Reply.ContinuePrompt
	}
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	c.Telegram.ChatID = strings.TrimSpace(c.Telegram.ChatID)
	c.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.APIBaseURL), "/")
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = defaults.Telegram.APIBaseURL
	}
	if c.Telegram.ReplyTimeoutSeconds <= 0 {
		c.Telegram.ReplyTimeoutSeconds = defaults.Telegram.ReplyTimeoutSeconds
	}
}

// RemoteResponder projects the gating flags the mode selector consults.
func (c Config) RemoteResponder() RemoteResponder {
	return RemoteResponder{
		Enabled:            c.Telegram.Enabled,
		SuppressLocalPopup: c.Telegram.HideFrontendPopup,
	}
}

func (c *Config) Set(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	switch key {
	case "locale":
		normalized := normalizeLocaleSetting(value, "")
		if normalized == "" {
			return fmt.Errorf("locale must be auto or a valid locale like en or zh-CN")
		}
		c.Locale = normalized
	case "ui.backend":
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalizeUIBackend(normalized, "") != normalized {
			return fmt.Errorf("ui.backend must be one of: auto, bubbletea, huh, tview, plain")
		}
		c.UI.Backend = normalized
	case "reply.enable_continue":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("reply.enable_continue must be boolean")
		}
		c.Reply.EnableContinue = b
	case "reply.continue_prompt":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("reply.continue_prompt cannot be empty")
		}
		c.Reply.ContinuePrompt = value
	case "telegram.enabled":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("telegram.enabled must be boolean")
		}
		c.Telegram.Enabled = b
	case "telegram.hide_frontend_popup":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("telegram.hide_frontend_popup must be boolean")
		}
		c.Telegram.HideFrontendPopup = b
	case "telegram.bot_token":
		c.Telegram.BotToken = value
	case "telegram.chat_id":
		c.Telegram.ChatID = value
	case "telegram.api_base_url":
		c.Telegram.APIBaseURL = value
	case "telegram.reply_timeout_seconds":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			return fmt.Errorf("telegram.reply_timeout_seconds must be positive")
		}
		c.Telegram.ReplyTimeoutSeconds = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	c.normalize()
	return nil
}

func (c Config) Get(key string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(key)) {
	case "locale":
		return c.Locale, nil
	case "ui.backend":
		return c.UI.Backend, nil
	case "reply.enable_continue":
		return strconv.FormatBool(c.Reply.EnableContinue), nil
	case "reply.continue_prompt":
		return c.Reply.ContinuePrompt, nil
	case "telegram.enabled":
		return strconv.FormatBool(c.Telegram.Enabled), nil
	case "telegram.hide_frontend_popup":
		return strconv.FormatBool(c.Telegram.HideFrontendPopup), nil
	case "telegram.bot_token":
		return c.Telegram.BotToken, nil
	case "telegram.chat_id":
		return c.Telegram.ChatID, nil
	case "telegram.api_base_url":
		return c.Telegram.APIBaseURL, nil
	case "telegram.reply_timeout_seconds":
		return strconv.Itoa(c.Telegram.ReplyTimeoutSeconds), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool: %s", value)
	}
}

func normalizeUIBackend(value string, fallback string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "auto", "bubbletea", "huh", "tview", "plain":
		return normalized
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}

func normalizeLocaleSetting(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = strings.TrimSpace(fallback)
	}
	if strings.EqualFold(trimmed, "auto") {
		return "auto"
	}
	return i18n.NormalizeLocale(trimmed)
}
