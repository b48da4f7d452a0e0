package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ashwch/cunzhi/internal/i18n"
	"github.com/ashwch/cunzhi/internal/mcp"
	tea "github.com/charmbracelet/bubbletea"
)

func testPopup(options ...string) Popup {
	return Popup{
		Request: mcp.Request{ID: "req-9", Message: "Apply the migration?", PredefinedOptions: options},
		Policy:  mcp.ReplyPolicy{EnableContinue: true, ContinuePrompt: "go on", Source: mcp.SourcePopup},
		Text:    i18n.LoadCatalog("en").Popup,
	}
}

func press(t *testing.T, m popupModel, msgs ...tea.KeyMsg) popupModel {
	t.Helper()
	var model tea.Model = m
	for _, msg := range msgs {
		model, _ = model.Update(msg)
	}
	out, ok := model.(popupModel)
	if !ok {
		t.Fatalf("expected popupModel")
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPopupModelTogglesOptionsAndSends(t *testing.T) {
	m := newPopupModel(testPopup("apply", "skip", "dry run"))
	out := press(t, m,
		runes("x"),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		runes("x"),
		tea.KeyMsg{Type: tea.KeyCtrlS},
	)
	if !out.done || out.answer.Action != ActionSend {
		t.Fatalf("expected send, got %+v", out.answer)
	}
	if strings.Join(out.answer.Selected, ",") != "apply,dry run" {
		t.Fatalf("unexpected selection %q", out.answer.Selected)
	}
}

func TestPopupModelTypesReplyAfterTab(t *testing.T) {
	m := newPopupModel(testPopup("apply"))
	out := press(t, m,
		tea.KeyMsg{Type: tea.KeyTab},
		runes("later"),
		tea.KeyMsg{Type: tea.KeyCtrlS},
	)
	if out.answer.Input != "later" {
		t.Fatalf("expected typed reply, got %q", out.answer.Input)
	}
	if len(out.answer.Selected) != 0 {
		t.Fatalf("expected no options, got %q", out.answer.Selected)
	}
}

func TestPopupModelContinueAndCancel(t *testing.T) {
	out := press(t, newPopupModel(testPopup()), tea.KeyMsg{Type: tea.KeyCtrlR})
	if out.answer.Action != ActionContinue {
		t.Fatalf("expected continue, got %q", out.answer.Action)
	}

	p := testPopup()
	p.Policy.EnableContinue = false
	out = press(t, newPopupModel(p), tea.KeyMsg{Type: tea.KeyCtrlR})
	if out.done {
		t.Fatalf("continue must be ignored when disabled")
	}

	out = press(t, newPopupModel(testPopup()), tea.KeyMsg{Type: tea.KeyEsc})
	if !out.done || out.answer.Action != ActionCancel {
		t.Fatalf("expected cancel, got %+v", out.answer)
	}
}

func TestPopupViewShowsNoticeAndOptions(t *testing.T) {
	p := testPopup("apply")
	p.Notice = "The request file could not be read"
	view := newPopupModel(p).View()
	for _, want := range []string{"could not be read", "Apply the migration?", "[ ] apply"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestAnswerResponse(t *testing.T) {
	p := testPopup("apply", "skip")
	resp := Answer{Action: ActionContinue}.Response(p)
	if resp.UserInput != "go on" {
		t.Fatalf("expected continue prompt, got %q", resp.UserInput)
	}
	resp = Answer{Action: ActionSend, Input: " ok ", Selected: []string{"skip"}}.Response(p)
	if resp.UserInput != "ok" || strings.Join(resp.SelectedOptions, ",") != "skip" {
		t.Fatalf("unexpected send response %+v", resp)
	}
	resp = Answer{Action: ActionCancel}.Response(p)
	if resp.UserInput != "" || len(resp.SelectedOptions) != 0 {
		t.Fatalf("expected empty cancel response, got %+v", resp)
	}
}

func TestAskRequestNonInteractiveUsesPlain(t *testing.T) {
	var prompt bytes.Buffer
	term := Terminal{In: strings.NewReader("2\n"), Out: &prompt, Interactive: false}

	resp, err := AskRequest(context.Background(), BackendTView, term, testPopup("apply", "skip"))
	if err != nil {
		t.Fatalf("AskRequest failed: %v", err)
	}
	if strings.Join(resp.SelectedOptions, ",") != "skip" {
		t.Fatalf("expected skip, got %q", resp.SelectedOptions)
	}
	if !strings.Contains(prompt.String(), "2. skip") {
		t.Fatalf("expected numbered options in prompt, got %q", prompt.String())
	}
}

func TestAskRequestPlainWithoutInputFails(t *testing.T) {
	term := Terminal{In: strings.NewReader(""), Out: &bytes.Buffer{}}
	if _, err := AskRequest(context.Background(), BackendPlain, term, testPopup()); err == nil {
		t.Fatalf("expected error on empty input")
	}
}

func TestAskRequestPlainStopsOnCancel(t *testing.T) {
	in, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })
	term := Terminal{In: in, Out: &bytes.Buffer{}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := AskRequest(ctx, BackendPlain, term, testPopup("apply"))
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("popup kept waiting for input after cancel")
	}
}
