package launch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ashwch/cunzhi/internal/i18n"
)

// ExitCode is the process status a dispatched Mode ends with.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitFailure ExitCode = 1
)

// HeadlessResponder answers one request file without any local UI. Handle
// blocks until the request is answered or has failed.
type HeadlessResponder interface {
	Handle(ctx context.Context, requestPath string) error
}

type HeadlessFunc func(ctx context.Context, requestPath string) error

func (f HeadlessFunc) Handle(ctx context.Context, requestPath string) error {
	return f(ctx, requestPath)
}

// InteractiveApp runs the interactive session to completion. It owns its own
// state and error reporting.
type InteractiveApp interface {
	Start(ctx context.Context, pending *string)
}

type InteractiveFunc func(ctx context.Context, pending *string)

func (f InteractiveFunc) Start(ctx context.Context, pending *string) {
	f(ctx, pending)
}

// Dispatcher runs exactly one branch per call to Run.
type Dispatcher struct {
	Stdout      io.Writer
	Catalog     i18n.Catalog
	Version     string
	Headless    HeadlessResponder
	Interactive InteractiveApp
	LogError    func(msg string, err error)
}

func (d Dispatcher) Run(ctx context.Context, mode Mode) ExitCode {
	switch mode.Kind {
	case ModePrintHelp:
		WriteHelp(d.Stdout, d.Catalog)
		return ExitSuccess
	case ModePrintVersion:
		WriteVersion(d.Stdout, d.Catalog, d.Version)
		return ExitSuccess
	case ModeHeadlessRespond:
		if d.Headless == nil {
			d.logError("headless responder is not available", nil)
			return ExitFailure
		}
		if err := d.Headless.Handle(ctx, mode.RequestPath); err != nil {
			d.logError("could not handle request "+mode.RequestPath+" headless", err)
			return ExitFailure
		}
		return ExitSuccess
	default:
		if d.Interactive != nil {
			d.Interactive.Start(ctx, mode.Pending())
		}
		return ExitSuccess
	}
}

func (d Dispatcher) logError(msg string, err error) {
	if d.LogError == nil {
		return
	}
	defer func() { _ = recover() }()
	d.LogError(msg, err)
}

func WriteHelp(w io.Writer, catalog i18n.Catalog) {
	var b strings.Builder
	b.WriteString(catalog.CLI.Title)
	b.WriteString("\n\n")
	b.WriteString(catalog.CLI.Usage)
	b.WriteString("\n")
	for _, entry := range catalog.CLI.Entries {
		b.WriteString(entry)
		b.WriteString("\n")
	}
	_, _ = io.WriteString(w, b.String())
}

func WriteVersion(w io.Writer, catalog i18n.Catalog, version string) {
	format := catalog.CLI.Version
	if !strings.Contains(format, "%s") {
		format = "cunzhi v%s"
	}
	_, _ = fmt.Fprintf(w, format+"\n", strings.TrimPrefix(strings.TrimSpace(version), "v"))
}
