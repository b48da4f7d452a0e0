package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

// Settings are the values the settings screen can change.
type Settings struct {
	TelegramEnabled   bool
	HideFrontendPopup bool
	BotToken          string
	ChatID            string
	Backend           string
	EnableContinue    bool
	ContinuePrompt    string
}

// EditSettings runs the settings form and reports whether the user saved.
// Without an interactive terminal it prints the current values instead.
func EditSettings(ctx context.Context, term Terminal, title string, s *Settings) (bool, error) {
	if !term.Interactive {
		_, err := io.WriteString(term.Out, FormatSettings(title, *s))
		return false, err
	}

	draft := *s
	save := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title(title),
			huh.NewConfirm().
				Title("Answer requests through Telegram").
				Value(&draft.TelegramEnabled),
			huh.NewConfirm().
				Title("Hide the local popup when Telegram is enabled").
				Value(&draft.HideFrontendPopup),
			huh.NewInput().
				Title("Bot token").
				EchoMode(huh.EchoModePassword).
				Value(&draft.BotToken),
			huh.NewInput().
				Title("Chat ID").
				Validate(validateChatID).
				Value(&draft.ChatID),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Popup backend").
				Options(huh.NewOptions(BackendAuto, BackendBubbleTea, BackendHuh, BackendTView, BackendPlain)...).
				Value(&draft.Backend),
			huh.NewConfirm().
				Title("Offer a continue shortcut").
				Value(&draft.EnableContinue),
			huh.NewInput().
				Title("Continue prompt").
				Value(&draft.ContinuePrompt),
			huh.NewConfirm().
				Title("Save changes?").
				Affirmative("Save").
				Negative("Discard").
				Value(&save),
		),
	).WithTheme(huh.ThemeCharm()).WithInput(term.In).WithOutput(term.Out)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	if !save {
		return false, nil
	}
	*s = draft
	return true, nil
}

func FormatSettings(title string, s Settings) string {
	token := "(unset)"
	if strings.TrimSpace(s.BotToken) != "" {
		token = "(set)"
	}
	lines := []string{
		title,
		"",
		fmt.Sprintf("telegram.enabled             = %t", s.TelegramEnabled),
		fmt.Sprintf("telegram.hide_frontend_popup = %t", s.HideFrontendPopup),
		fmt.Sprintf("telegram.bot_token           = %s", token),
		fmt.Sprintf("telegram.chat_id             = %s", s.ChatID),
		fmt.Sprintf("ui.backend                   = %s", s.Backend),
		fmt.Sprintf("reply.enable_continue        = %t", s.EnableContinue),
		fmt.Sprintf("reply.continue_prompt        = %s", s.ContinuePrompt),
	}
	return strings.Join(lines, "\n") + "\n"
}

func validateChatID(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	for idx, r := range trimmed {
		if r == '-' && idx == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return fmt.Errorf("chat id must be numeric")
		}
	}
	return nil
}
