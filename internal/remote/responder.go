// Package remote answers a pending request through a bot chat instead of the
// local popup.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ashwch/cunzhi/internal/appdirs"
	"github.com/ashwch/cunzhi/internal/config"
	"github.com/ashwch/cunzhi/internal/logging"
	"github.com/ashwch/cunzhi/internal/mcp"
	"github.com/ashwch/cunzhi/internal/safety"
)

var (
	ErrNotConfigured = errors.New("telegram bot_token and chat_id must be set")
	ErrNoReply       = errors.New("no reply received before the reply timeout")
)

// Transport delivers the question and returns the first answer.
type Transport interface {
	Send(ctx context.Context, text string) error
	WaitReply(ctx context.Context) (string, error)
}

type Responder struct {
	Transport      Transport
	Stdout         io.Writer
	EnableContinue bool
	ContinuePrompt string
	Timeout        time.Duration
}

func NewFromConfig(cfg config.Config, stdout io.Writer) (*Responder, error) {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		return nil, ErrNotConfigured
	}
	safety.RegisterSecret(cfg.Telegram.BotToken)
	return &Responder{
		Transport: &Telegram{
			BaseURL: cfg.Telegram.APIBaseURL,
			Token:   cfg.Telegram.BotToken,
			ChatID:  cfg.Telegram.ChatID,
		},
		Stdout:         stdout,
		EnableContinue: cfg.Reply.EnableContinue,
		ContinuePrompt: cfg.Reply.ContinuePrompt,
		Timeout:        time.Duration(cfg.Telegram.ReplyTimeoutSeconds) * time.Second,
	}, nil
}

// HandleRequest loads the full config and answers requestPath headless,
// writing the response to stdout.
func HandleRequest(ctx context.Context, requestPath string, stdout io.Writer) error {
	path, err := appdirs.ConfigFilePath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	responder, err := NewFromConfig(cfg, stdout)
	if err != nil {
		return err
	}
	return responder.Handle(ctx, requestPath)
}

func (r *Responder) Handle(ctx context.Context, requestPath string) error {
	req, err := mcp.ReadRequest(requestPath)
	if err != nil {
		return err
	}
	resp, err := r.Answer(ctx, req)
	if err != nil {
		return err
	}
	return mcp.WriteResponse(r.Stdout, resp)
}

// Answer sends req to the chat and waits for the first reply. It returns
// ErrNoReply when the reply timeout passes, and ctx.Err() when ctx is
// cancelled first.
func (r *Responder) Answer(ctx context.Context, req mcp.Request) (mcp.Response, error) {
	logging.Logger.Info().Str("request_id", req.ID).Msg("forwarding request to telegram")

	waitCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if err := r.Transport.Send(waitCtx, FormatRequest(req, r.EnableContinue)); err != nil {
		if ctx.Err() != nil {
			return mcp.Response{}, ctx.Err()
		}
		return mcp.Response{}, fmt.Errorf("could not send request: %w", err)
	}
	reply, err := r.Transport.WaitReply(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return mcp.Response{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return mcp.Response{}, ErrNoReply
		}
		return mcp.Response{}, fmt.Errorf("could not receive reply: %w", err)
	}

	resp := r.ParseReply(req, reply)
	logging.Logger.Info().
		Str("request_id", req.ID).
		Int("selected", len(resp.SelectedOptions)).
		Msg("telegram reply received")
	return resp, nil
}

// FormatRequest renders the chat message: the question, numbered options and
// a hint about the reserved replies.
func FormatRequest(req mcp.Request, enableContinue bool) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Message))
	if len(req.PredefinedOptions) > 0 {
		b.WriteString("\n\n")
		for idx, option := range req.PredefinedOptions {
			fmt.Fprintf(&b, "%d. %s\n", idx+1, option)
		}
		b.WriteString("\nReply with option numbers (e.g. 1,3) or free text.")
	}
	if enableContinue {
		b.WriteString("\nReply \"continue\" to let the assistant proceed.")
	}
	b.WriteString("\nReply \"cancel\" to stop.")
	return b.String()
}

// ParseReply interprets a chat reply for req.
func (r *Responder) ParseReply(req mcp.Request, reply string) mcp.Response {
	return mcp.ParseReply(req, reply, mcp.ReplyPolicy{
		EnableContinue: r.EnableContinue,
		ContinuePrompt: r.ContinuePrompt,
		Source:         mcp.SourceTelegram,
	})
}
