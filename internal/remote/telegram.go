package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultPollSeconds = 25

// Telegram talks to the Bot API with sendMessage and getUpdates long polling.
// It is single-use: one Send followed by one WaitReply.
type Telegram struct {
	BaseURL     string
	Token       string
	ChatID      string
	Client      *http.Client
	PollSeconds int

	offset int64
	sentAt int64
}

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type apiMessage struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

type apiUpdate struct {
	UpdateID int64       `json:"update_id"`
	Message  *apiMessage `json:"message"`
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"chat_id": t.ChatID, "text": text})
	if err != nil {
		return fmt.Errorf("could not encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var sent apiMessage
	if err := t.do(req, &sent); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	t.sentAt = sent.Date
	return nil
}

// WaitReply returns the first text message from the configured chat sent no
// earlier than the request. It polls until ctx is done.
func (t *Telegram) WaitReply(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		updates, err := t.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("getUpdates: %w", err)
		}
		for _, update := range updates {
			if update.UpdateID >= t.offset {
				t.offset = update.UpdateID + 1
			}
			msg := update.Message
			if msg == nil || strings.TrimSpace(msg.Text) == "" {
				continue
			}
			if strconv.FormatInt(msg.Chat.ID, 10) != t.ChatID || msg.Date < t.sentAt {
				continue
			}
			return msg.Text, nil
		}
	}
}

func (t *Telegram) poll(ctx context.Context) ([]apiUpdate, error) {
	seconds := t.PollSeconds
	if seconds <= 0 {
		seconds = defaultPollSeconds
	}
	query := url.Values{}
	query.Set("timeout", strconv.Itoa(seconds))
	query.Set("allowed_updates", `["message"]`)
	if t.offset > 0 {
		query.Set("offset", strconv.FormatInt(t.offset, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.methodURL("getUpdates")+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var updates []apiUpdate
	if err := t.do(req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (t *Telegram) do(req *http.Request, out interface{}) error {
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: time.Duration(defaultPollSeconds+10) * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("could not decode response (status %d): %w", resp.StatusCode, err)
	}
	if !envelope.OK {
		if envelope.Description == "" {
			envelope.Description = resp.Status
		}
		return errors.New(envelope.Description)
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

func (t *Telegram) methodURL(method string) string {
	return strings.TrimRight(t.BaseURL, "/") + "/bot" + t.Token + "/" + method
}
