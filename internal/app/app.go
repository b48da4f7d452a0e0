// Package app is the interactive session: it owns the full config and either
// shows a pending request in the popup or opens the settings screen.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ashwch/cunzhi/internal/config"
	"github.com/ashwch/cunzhi/internal/i18n"
	"github.com/ashwch/cunzhi/internal/logging"
	"github.com/ashwch/cunzhi/internal/mcp"
	"github.com/ashwch/cunzhi/internal/remote"
	"github.com/ashwch/cunzhi/internal/ui"
)

// Options configures the interactive session.
type Options struct {
	// Stdout receives the MCP response. Defaults to os.Stdout.
	Stdout io.Writer
	// OpenTerminal overrides terminal discovery in tests.
	OpenTerminal func() (ui.Terminal, func())
	// NewResponder builds the chat responder that answers alongside the popup
	// when telegram is enabled. Defaults to remote.NewFromConfig.
	NewResponder func(cfg config.Config) (*remote.Responder, error)
}

type App struct {
	stdout       io.Writer
	openTerminal func() (ui.Terminal, func())
	newResponder func(cfg config.Config) (*remote.Responder, error)
}

func New(opts Options) *App {
	a := &App{stdout: opts.Stdout, openTerminal: opts.OpenTerminal, newResponder: opts.NewResponder}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.openTerminal == nil {
		a.openTerminal = ui.OpenTerminal
	}
	if a.newResponder == nil {
		a.newResponder = func(cfg config.Config) (*remote.Responder, error) {
			return remote.NewFromConfig(cfg, a.stdout)
		}
	}
	return a
}

// Start runs the session to completion. Failures are logged here; the caller
// only learns that the session ended.
func (a *App) Start(ctx context.Context, pending *string) {
	cfg, cfgPath, err := config.LoadOrCreate()
	if err != nil {
		logging.Warn("could not load config, using defaults", err)
		cfg = config.Default()
		cfgPath = ""
	}
	catalog := i18n.LoadCatalog(localeOf(cfg))

	term, closeTerm := a.openTerminal()
	defer closeTerm()

	if pending != nil {
		if err := a.AnswerRequest(ctx, term, cfg, catalog, *pending); err != nil {
			logging.Error("could not answer request "+*pending, err)
		}
		return
	}
	if err := a.EditSettings(ctx, term, cfg, cfgPath, catalog); err != nil {
		logging.Error("settings screen failed", err)
	}
}

type answer struct {
	resp   mcp.Response
	err    error
	source string
}

// AnswerRequest shows the request at path and writes the answer to stdout.
// An unreadable request still opens the popup with the error shown, so the
// user learns a request was lost instead of nothing happening. With telegram
// enabled the request also goes to the chat; the first answer is written and
// the other side is cancelled.
func (a *App) AnswerRequest(ctx context.Context, term ui.Terminal, cfg config.Config, catalog i18n.Catalog, path string) error {
	popup := ui.Popup{
		Policy: mcp.ReplyPolicy{
			EnableContinue: cfg.Reply.EnableContinue,
			ContinuePrompt: cfg.Reply.ContinuePrompt,
			Source:         mcp.SourcePopup,
		},
		Text: catalog.Popup,
	}

	req, err := mcp.ReadRequest(path)
	readable := err == nil
	if !readable {
		logging.Error("could not read request "+path, err)
		popup.Notice = fmt.Sprintf("%s: %v", catalog.Popup.ReadFailed, err)
		req = mcp.Request{Message: path}
	}
	popup.Request = req

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	answers := make(chan answer, 2)
	running := 1
	go func() {
		resp, err := ui.AskRequest(ctx, cfg.UI.Backend, term, popup)
		answers <- answer{resp: resp, err: err, source: mcp.SourcePopup}
	}()
	if readable && cfg.Telegram.Enabled {
		if responder, err := a.newResponder(cfg); err != nil {
			logging.Warn("telegram is enabled but cannot answer requests", err)
		} else {
			running++
			go func() {
				resp, err := responder.Answer(ctx, req)
				answers <- answer{resp: resp, err: err, source: mcp.SourceTelegram}
			}()
		}
	}

	var firstErr error
	for ; running > 0; running-- {
		got := <-answers
		if got.err != nil {
			if got.source == mcp.SourceTelegram {
				logging.Warn("telegram did not answer, waiting for the popup", got.err)
			}
			if firstErr == nil {
				firstErr = got.err
			}
			continue
		}
		cancel()
		// let the losing side close its screen before the response goes out
		for running--; running > 0; running-- {
			<-answers
		}
		logging.Logger.Info().Str("request_id", req.ID).Str("source", got.source).Msg("request answered")
		return mcp.WriteResponse(a.stdout, got.resp)
	}
	return firstErr
}

func (a *App) EditSettings(ctx context.Context, term ui.Terminal, cfg config.Config, cfgPath string, catalog i18n.Catalog) error {
	settings := ui.Settings{
		TelegramEnabled:   cfg.Telegram.Enabled,
		HideFrontendPopup: cfg.Telegram.HideFrontendPopup,
		BotToken:          cfg.Telegram.BotToken,
		ChatID:            cfg.Telegram.ChatID,
		Backend:           cfg.UI.Backend,
		EnableContinue:    cfg.Reply.EnableContinue,
		ContinuePrompt:    cfg.Reply.ContinuePrompt,
	}
	saved, err := ui.EditSettings(ctx, term, catalog.Popup.SettingsTitle, &settings)
	if err != nil || !saved {
		return err
	}
	if cfgPath == "" {
		return fmt.Errorf("config path unknown, settings were not saved")
	}

	changes := []struct{ key, value string }{
		{"telegram.enabled", fmt.Sprint(settings.TelegramEnabled)},
		{"telegram.hide_frontend_popup", fmt.Sprint(settings.HideFrontendPopup)},
		{"telegram.bot_token", settings.BotToken},
		{"telegram.chat_id", settings.ChatID},
		{"ui.backend", settings.Backend},
		{"reply.enable_continue", fmt.Sprint(settings.EnableContinue)},
	}
	if settings.ContinuePrompt != "" {
		changes = append(changes, struct{ key, value string }{"reply.continue_prompt", settings.ContinuePrompt})
	}
	for _, change := range changes {
		if err := cfg.Set(change.key, change.value); err != nil {
			return fmt.Errorf("invalid setting %s: %w", change.key, err)
		}
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	logging.Info("settings saved to " + cfgPath)
	return nil
}

func localeOf(cfg config.Config) string {
	if cfg.Locale == "auto" {
		return ""
	}
	return cfg.Locale
}
