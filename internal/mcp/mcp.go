// Package mcp holds the request file read by both answer paths and the
// response document they write back to the waiting MCP server.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	SourcePopup    = "popup"
	SourceTelegram = "telegram"
)

// Request is one pending question written to disk by the MCP server.
type Request struct {
	ID                string   `json:"id"`
	Message           string   `json:"message"`
	PredefinedOptions []string `json:"predefined_options,omitempty"`
	IsMarkdown        bool     `json:"is_markdown"`
}

type Metadata struct {
	RequestID string `json:"request_id,omitempty"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// Response is what the user (or the bot chat) answered.
type Response struct {
	UserInput       string   `json:"user_input,omitempty"`
	SelectedOptions []string `json:"selected_options"`
	Metadata        Metadata `json:"metadata"`
}

var now = time.Now

func ReadRequest(path string) (Request, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("could not read request file: %w", err)
	}
	var req Request
	if err := json.Unmarshal(bytes, &req); err != nil {
		return Request{}, fmt.Errorf("could not parse request file: %w", err)
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		return Request{}, errors.New("request id cannot be empty")
	}
	if strings.TrimSpace(req.Message) == "" {
		return Request{}, errors.New("request message cannot be empty")
	}
	req.PredefinedOptions = cleanOptions(req.PredefinedOptions)
	return req, nil
}

// BuildSendResponse answers req with free text and/or chosen options. Options
// not offered by req are dropped.
func BuildSendResponse(req Request, userInput string, selected []string, source string) Response {
	offered := map[string]struct{}{}
	for _, option := range req.PredefinedOptions {
		offered[option] = struct{}{}
	}
	kept := make([]string, 0, len(selected))
	for _, option := range cleanOptions(selected) {
		if _, ok := offered[option]; ok {
			kept = append(kept, option)
		}
	}
	return Response{
		UserInput:       strings.TrimSpace(userInput),
		SelectedOptions: kept,
		Metadata:        metadata(req.ID, source),
	}
}

// BuildContinueResponse answers req with the configured continue prompt.
func BuildContinueResponse(req Request, continuePrompt string, source string) Response {
	return Response{
		UserInput:       strings.TrimSpace(continuePrompt),
		SelectedOptions: []string{},
		Metadata:        metadata(req.ID, source),
	}
}

// BuildCancelResponse is an empty answer; the server treats it as "stop".
func BuildCancelResponse(req Request, source string) Response {
	return Response{
		SelectedOptions: []string{},
		Metadata:        metadata(req.ID, source),
	}
}

func WriteResponse(w io.Writer, resp Response) error {
	if resp.SelectedOptions == nil {
		resp.SelectedOptions = []string{}
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("could not encode response: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("could not write response: %w", err)
	}
	return nil
}

func metadata(requestID string, source string) Metadata {
	return Metadata{
		RequestID: requestID,
		Source:    source,
		Timestamp: now().UTC().Format(time.RFC3339),
	}
}

func cleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	seen := map[string]struct{}{}
	for _, option := range options {
		trimmed := strings.TrimSpace(option)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
