// Package launch turns a classified invocation into exactly one execution
// path: print help, print version, answer a request headless, or hand over
// to the interactive app.
package launch

import (
	"github.com/ashwch/cunzhi/internal/config"
	"github.com/ashwch/cunzhi/internal/router"
)

type ModeKind string

const (
	ModeHeadlessRespond ModeKind = "headless_respond"
	ModeInteractiveApp  ModeKind = "interactive_app"
	ModePrintHelp       ModeKind = "print_help"
	ModePrintVersion    ModeKind = "print_version"
)

// Mode is the concrete action for this run. RequestPath is the request to
// answer for ModeHeadlessRespond, and the pending request for
// ModeInteractiveApp when HasRequest is set.
type Mode struct {
	Kind        ModeKind
	RequestPath string
	HasRequest  bool
}

// Pending returns the request the interactive app should open, or nil.
func (m Mode) Pending() *string {
	if m.Kind != ModeInteractiveApp || !m.HasRequest {
		return nil
	}
	path := m.RequestPath
	return &path
}

// Selector picks a Mode. LoadConfig is called once, and only for
// router.KindHandleRequest.
type Selector struct {
	LoadConfig func() (config.RemoteResponder, error)
	Warn       func(msg string, err error)
}

// Select never fails. A config that cannot be loaded sends the request to the
// interactive app, which can always show it to a human; only an explicitly
// enabled responder with the local popup suppressed answers headless.
func (s Selector) Select(intent router.Intent) Mode {
	switch intent.Kind {
	case router.KindShowHelp:
		return Mode{Kind: ModePrintHelp}
	case router.KindShowVersion:
		return Mode{Kind: ModePrintVersion}
	case router.KindHandleRequest:
		return s.selectForRequest(intent.RequestPath)
	default:
		return Mode{Kind: ModeInteractiveApp}
	}
}

func (s Selector) selectForRequest(path string) Mode {
	interactive := Mode{Kind: ModeInteractiveApp, RequestPath: path, HasRequest: true}
	if s.LoadConfig == nil {
		return interactive
	}

	remote, err := s.LoadConfig()
	if err != nil {
		s.warn("could not load remote responder config, falling back to the popup", err)
		return interactive
	}
	if remote.Enabled && remote.SuppressLocalPopup {
		return Mode{Kind: ModeHeadlessRespond, RequestPath: path}
	}
	return interactive
}

func (s Selector) warn(msg string, err error) {
	if s.Warn == nil {
		return
	}
	// a broken log sink must not change the decision
	defer func() { _ = recover() }()
	s.Warn(msg, err)
}
