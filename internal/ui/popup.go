package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ashwch/cunzhi/internal/i18n"
	"github.com/ashwch/cunzhi/internal/mcp"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/tview"
)

type Action string

const (
	ActionSend     Action = "send"
	ActionContinue Action = "continue"
	ActionCancel   Action = "cancel"
)

// Answer is what the user did in the popup.
type Answer struct {
	Action   Action
	Input    string
	Selected []string
}

// Popup is one request shown to the user. Notice is displayed above the
// message, e.g. when the request file could not be read.
type Popup struct {
	Request mcp.Request
	Notice  string
	Policy  mcp.ReplyPolicy
	Text    i18n.PopupCatalog
}

// Response converts the answer into the document sent back to the server.
func (a Answer) Response(p Popup) mcp.Response {
	switch a.Action {
	case ActionContinue:
		if p.Policy.EnableContinue {
			return mcp.BuildContinueResponse(p.Request, p.Policy.ContinuePrompt, p.Policy.Source)
		}
		return mcp.BuildCancelResponse(p.Request, p.Policy.Source)
	case ActionSend:
		return mcp.BuildSendResponse(p.Request, a.Input, a.Selected, p.Policy.Source)
	default:
		return mcp.BuildCancelResponse(p.Request, p.Policy.Source)
	}
}

// AskRequest shows p with the first backend that starts, falling back along
// backendCandidates. The plain backend reads a single line from term.In.
// Cancelling ctx closes the popup and returns ctx.Err().
func AskRequest(ctx context.Context, backend string, term Terminal, p Popup) (mcp.Response, error) {
	if !term.Interactive {
		backend = BackendPlain
	}
	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		if err := ctx.Err(); err != nil {
			return mcp.Response{}, err
		}
		var (
			answer Answer
			err    error
		)
		switch candidate {
		case BackendBubbleTea:
			answer, err = askWithBubbleTea(ctx, term, p)
		case BackendHuh:
			answer, err = askWithHuh(ctx, term, p)
		case BackendTView:
			answer, err = askWithTView(ctx, p)
		case BackendPlain:
			resp, err := askPlain(ctx, term, p)
			if err != nil {
				if ctx.Err() != nil {
					return mcp.Response{}, ctx.Err()
				}
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			return resp, nil
		default:
			continue
		}
		if ctx.Err() != nil {
			return mcp.Response{}, ctx.Err()
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return answer.Response(p), nil
	}
	if firstErr == nil {
		firstErr = errors.New("no popup backend available")
	}
	return mcp.Response{}, firstErr
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Faint(true)
	messageStyle = lipgloss.NewStyle().PaddingLeft(1).Border(lipgloss.NormalBorder(), false, false, false, true)
)

type popupModel struct {
	popup        Popup
	input        textarea.Model
	cursor       int
	checked      map[int]bool
	focusOptions bool
	answer       Answer
	done         bool
}

func newPopupModel(p Popup) popupModel {
	input := textarea.New()
	input.Placeholder = p.Text.ReplyPlaceholder
	input.ShowLineNumbers = false
	input.SetWidth(72)
	input.SetHeight(4)

	m := popupModel{
		popup:        p,
		input:        input,
		checked:      map[int]bool{},
		focusOptions: len(p.Request.PredefinedOptions) > 0,
	}
	if !m.focusOptions {
		m.input.Focus()
	}
	return m
}

func (m popupModel) Init() tea.Cmd { return textarea.Blink }

func (m popupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch k.String() {
	case "esc", "ctrl+c":
		return m.finish(ActionCancel)
	case "ctrl+s":
		return m.finish(ActionSend)
	case "ctrl+r":
		if m.popup.Policy.EnableContinue {
			return m.finish(ActionContinue)
		}
		return m, nil
	case "tab", "shift+tab":
		if len(m.popup.Request.PredefinedOptions) == 0 {
			return m, nil
		}
		m.focusOptions = !m.focusOptions
		if m.focusOptions {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()
	}

	if m.focusOptions {
		switch k.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.popup.Request.PredefinedOptions)-1 {
				m.cursor++
			}
		case " ", "x", "enter":
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m popupModel) finish(action Action) (tea.Model, tea.Cmd) {
	m.done = true
	m.answer = Answer{Action: action}
	if action == ActionSend {
		m.answer.Input = m.input.Value()
		for idx, option := range m.popup.Request.PredefinedOptions {
			if m.checked[idx] {
				m.answer.Selected = append(m.answer.Selected, option)
			}
		}
	}
	return m, tea.Quit
}

func (m popupModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.popup.Text.Title))
	b.WriteString("\n\n")
	if m.popup.Notice != "" {
		b.WriteString(noticeStyle.Render(m.popup.Notice))
		b.WriteString("\n\n")
	}
	b.WriteString(messageStyle.Render(strings.TrimSpace(m.popup.Request.Message)))
	b.WriteString("\n\n")

	if options := m.popup.Request.PredefinedOptions; len(options) > 0 {
		b.WriteString(m.popup.Text.Options)
		b.WriteString("\n")
		for idx, option := range options {
			pointer := "  "
			if m.focusOptions && idx == m.cursor {
				pointer = cursorStyle.Render("> ")
			}
			box := "[ ]"
			if m.checked[idx] {
				box = "[x]"
			}
			fmt.Fprintf(&b, "%s%s %s\n", pointer, box, option)
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(m.popup.Text.Keys))
	return b.String()
}

func askWithBubbleTea(ctx context.Context, term Terminal, p Popup) (Answer, error) {
	final, err := tea.NewProgram(
		newPopupModel(p),
		tea.WithContext(ctx),
		tea.WithInput(term.In),
		tea.WithOutput(term.Out),
		tea.WithAltScreen(),
	).Run()
	if err != nil {
		return Answer{}, err
	}
	out, ok := final.(popupModel)
	if !ok || !out.done {
		return Answer{Action: ActionCancel}, nil
	}
	return out.answer, nil
}

func askWithHuh(ctx context.Context, term Terminal, p Popup) (Answer, error) {
	var (
		selected []string
		input    string
		action   = string(ActionSend)
	)

	description := strings.TrimSpace(p.Request.Message)
	if p.Notice != "" {
		description = p.Notice + "\n\n" + description
	}
	fields := []huh.Field{
		huh.NewNote().Title(p.Text.Title).Description(description),
	}
	if len(p.Request.PredefinedOptions) > 0 {
		fields = append(fields, huh.NewMultiSelect[string]().
			Title(p.Text.Options).
			Options(huh.NewOptions(p.Request.PredefinedOptions...)...).
			Value(&selected))
	}
	fields = append(fields, huh.NewText().
		Placeholder(p.Text.ReplyPlaceholder).
		Value(&input))

	actions := []huh.Option[string]{huh.NewOption(p.Text.Send, string(ActionSend))}
	if p.Policy.EnableContinue {
		actions = append(actions, huh.NewOption(p.Text.Continue, string(ActionContinue)))
	}
	actions = append(actions, huh.NewOption(p.Text.Cancel, string(ActionCancel)))
	fields = append(fields, huh.NewSelect[string]().Options(actions...).Value(&action))

	err := huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeCharm()).
		WithInput(term.In).
		WithOutput(term.Out).
		RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Answer{Action: ActionCancel}, nil
		}
		return Answer{}, err
	}
	return Answer{Action: Action(action), Input: input, Selected: selected}, nil
}

func askWithTView(ctx context.Context, p Popup) (Answer, error) {
	app := tview.NewApplication()
	answer := Answer{Action: ActionCancel}
	checked := make([]bool, len(p.Request.PredefinedOptions))
	input := ""

	message := strings.TrimSpace(p.Request.Message)
	if p.Notice != "" {
		message = p.Notice + "\n\n" + message
	}
	form := tview.NewForm().
		AddTextView("", message, 0, 6, false, true)
	for idx, option := range p.Request.PredefinedOptions {
		idx := idx
		form.AddCheckbox(option, false, func(on bool) { checked[idx] = on })
	}
	form.AddInputField(p.Text.ReplyPlaceholder, "", 0, nil, func(text string) { input = text })
	form.AddButton(p.Text.Send, func() {
		answer = Answer{Action: ActionSend, Input: input}
		for idx, on := range checked {
			if on {
				answer.Selected = append(answer.Selected, p.Request.PredefinedOptions[idx])
			}
		}
		app.Stop()
	})
	if p.Policy.EnableContinue {
		form.AddButton(p.Text.Continue, func() {
			answer = Answer{Action: ActionContinue}
			app.Stop()
		})
	}
	form.AddButton(p.Text.Cancel, func() { app.Stop() })
	form.SetCancelFunc(func() { app.Stop() })
	form.SetBorder(true).SetTitle(" " + p.Text.Title + " ")

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			app.Stop()
		case <-stopped:
		}
	}()

	if err := app.SetRoot(form, true).Run(); err != nil {
		return Answer{}, err
	}
	return answer, nil
}

// askPlain prints the request and reads one reply line, interpreted the same
// way as a chat reply. A read blocked on term.In is abandoned when ctx is
// done.
func askPlain(ctx context.Context, term Terminal, p Popup) (mcp.Response, error) {
	var b strings.Builder
	b.WriteString(p.Text.Title)
	b.WriteString("\n\n")
	if p.Notice != "" {
		b.WriteString(p.Notice)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(p.Request.Message))
	b.WriteString("\n")
	for idx, option := range p.Request.PredefinedOptions {
		fmt.Fprintf(&b, "  %d. %s\n", idx+1, option)
	}
	b.WriteString("> ")
	if _, err := io.WriteString(term.Out, b.String()); err != nil {
		return mcp.Response{}, err
	}

	type readResult struct {
		line string
		err  error
	}
	read := make(chan readResult, 1)
	go func() {
		line, err := bufio.NewReader(term.In).ReadString('\n')
		read <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return mcp.Response{}, ctx.Err()
	case r := <-read:
		if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
			return mcp.Response{}, fmt.Errorf("could not read reply: %w", r.err)
		}
		return mcp.ParseReply(p.Request, r.line, p.Policy), nil
	}
}
