package i18n

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashwch/cunzhi/internal/appdirs"
)

const EnvLocale = "CUNZHI_LOCALE"

type Catalog struct {
	Locale string       `json:"locale"`
	CLI    CLICatalog   `json:"cli"`
	Popup  PopupCatalog `json:"popup"`
}

type CLICatalog struct {
	Title   string   `json:"title"`
	Usage   string   `json:"usage"`
	Entries []string `json:"entries"`
	// Version is a format string receiving the version.
	Version string `json:"version"`
}

type PopupCatalog struct {
	Title            string `json:"title"`
	Options          string `json:"options"`
	ReplyPlaceholder string `json:"reply_placeholder"`
	Send             string `json:"send"`
	Continue         string `json:"continue"`
	Cancel           string `json:"cancel"`
	Keys             string `json:"keys"`
	ReadFailed       string `json:"read_failed"`
	SettingsTitle    string `json:"settings_title"`
}

func LoadCatalog(requestedLocale string) Catalog {
	locale := NormalizeLocale(requestedLocale)
	if locale == "" {
		locale = DetectLocale()
	}
	base := baseCatalogForLocale(locale)

	if override, ok := loadCommunityCatalog(locale); ok {
		merged := mergeCatalog(base, override)
		if strings.TrimSpace(override.Locale) != "" {
			merged.Locale = NormalizeLocale(override.Locale)
		} else {
			merged.Locale = locale
		}
		return merged
	}

	base.Locale = locale
	return base
}

func baseCatalogForLocale(locale string) Catalog {
	normalized := strings.ToLower(NormalizeLocale(locale))
	switch {
	case strings.HasPrefix(normalized, "zh"):
		// Chinese first, English fills any gaps.
		base := mergeCatalog(defaultEnglishCatalog(), defaultChineseCatalog())
		base.Locale = "zh"
		return base
	default:
		base := defaultEnglishCatalog()
		base.Locale = "en"
		return base
	}
}

func DetectLocale() string {
	candidates := []string{
		os.Getenv(EnvLocale),
		os.Getenv("LC_ALL"),
		os.Getenv("LC_MESSAGES"),
		os.Getenv("LANG"),
	}
	for _, candidate := range candidates {
		if normalized := NormalizeLocale(candidate); normalized != "" {
			return normalized
		}
	}
	return "en"
}

func NormalizeLocale(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.Split(trimmed, ".")[0]
	trimmed = strings.Split(trimmed, "@")[0]
	trimmed = strings.ReplaceAll(trimmed, "_", "-")

	parts := strings.Split(trimmed, "-")
	lang := strings.ToLower(parts[0])
	if !isValidLocaleToken(lang, true) {
		return ""
	}
	if len(parts) == 1 || parts[1] == "" {
		return lang
	}
	region := strings.ToUpper(parts[1])
	if !isValidLocaleToken(strings.ToLower(region), false) {
		return ""
	}
	return lang + "-" + region
}

func isValidLocaleToken(token string, lettersOnly bool) bool {
	if len(token) < 2 || len(token) > 8 {
		return false
	}
	for _, r := range token {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if !lettersOnly && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func loadCommunityCatalog(locale string) (Catalog, bool) {
	configDir, err := appdirs.ConfigDir()
	if err != nil {
		return Catalog{}, false
	}

	normalized := NormalizeLocale(locale)
	if normalized == "" {
		return Catalog{}, false
	}
	lang := normalized
	if idx := strings.Index(lang, "-"); idx > 0 {
		lang = lang[:idx]
	}

	paths := []string{
		filepath.Join(configDir, "locales", normalized+".json"),
	}
	if lang != normalized {
		paths = append(paths, filepath.Join(configDir, "locales", lang+".json"))
	}

	for _, path := range paths {
		bytes, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var catalog Catalog
		if err := json.Unmarshal(bytes, &catalog); err != nil {
			continue
		}
		return catalog, true
	}
	return Catalog{}, false
}

// mergeCatalog overlays every non-empty field of override onto base.
func mergeCatalog(base Catalog, override Catalog) Catalog {
	merged := base

	pick(&merged.CLI.Title, override.CLI.Title)
	pick(&merged.CLI.Usage, override.CLI.Usage)
	pick(&merged.CLI.Version, override.CLI.Version)
	if len(override.CLI.Entries) > 0 {
		merged.CLI.Entries = append([]string(nil), override.CLI.Entries...)
	}

	pick(&merged.Popup.Title, override.Popup.Title)
	pick(&merged.Popup.Options, override.Popup.Options)
	pick(&merged.Popup.ReplyPlaceholder, override.Popup.ReplyPlaceholder)
	pick(&merged.Popup.Send, override.Popup.Send)
	pick(&merged.Popup.Continue, override.Popup.Continue)
	pick(&merged.Popup.Cancel, override.Popup.Cancel)
	pick(&merged.Popup.Keys, override.Popup.Keys)
	pick(&merged.Popup.ReadFailed, override.Popup.ReadFailed)
	pick(&merged.Popup.SettingsTitle, override.Popup.SettingsTitle)

	return merged
}

func pick(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

func defaultEnglishCatalog() Catalog {
	return Catalog{
		Locale: "en",
		CLI: CLICatalog{
			Title: "cunzhi - review checkpoint for AI coding assistants",
			Usage: "Usage:",
			Entries: []string{
				"  cunzhi                          open the settings screen",
				"  cunzhi --mcp-request <file>     answer an MCP request",
				"  cunzhi --help                   show this help",
				"  cunzhi --version                show version information",
			},
			Version: "cunzhi v%s",
		},
		Popup: PopupCatalog{
			Title:            "Assistant is waiting for your reply",
			Options:          "Options",
			ReplyPlaceholder: "type a reply (optional)",
			Send:             "Send",
			Continue:         "Continue",
			Cancel:           "Cancel",
			Keys:             "[tab] focus  [space] toggle option  [ctrl+s] send  [ctrl+r] continue  [esc] cancel",
			ReadFailed:       "The request file could not be read",
			SettingsTitle:    "cunzhi settings",
		},
	}
}

func defaultChineseCatalog() Catalog {
	return Catalog{
		Locale: "zh",
		CLI: CLICatalog{
			Title: "寸止 - 智能代码审查工具",
			Usage: "用法:",
			Entries: []string{
				"  cunzhi                          启动设置界面",
				"  cunzhi --mcp-request <文件>     处理 MCP 请求",
				"  cunzhi --help                   显示此帮助信息",
				"  cunzhi --version                显示版本信息",
			},
			Version: "寸止 v%s",
		},
		Popup: PopupCatalog{
			Title:            "助手正在等待你的回复",
			Options:          "选项",
			ReplyPlaceholder: "输入回复 (可选)",
			Send:             "发送",
			Continue:         "继续",
			Cancel:           "取消",
			ReadFailed:       "无法读取请求文件",
			SettingsTitle:    "寸止 设置",
		},
	}
}
