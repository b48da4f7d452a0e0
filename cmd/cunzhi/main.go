package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ashwch/cunzhi/internal/app"
	"github.com/ashwch/cunzhi/internal/config"
	"github.com/ashwch/cunzhi/internal/i18n"
	"github.com/ashwch/cunzhi/internal/launch"
	"github.com/ashwch/cunzhi/internal/logging"
	"github.com/ashwch/cunzhi/internal/remote"
	"github.com/ashwch/cunzhi/internal/router"
)

var version = "dev"

// Collaborators are package vars so tests can replace them.
var (
	loadRemoteResponder = config.LoadRemoteResponder
	initLogging         = logging.Init
	newHeadless         = func(stdout io.Writer) launch.HeadlessResponder {
		return launch.HeadlessFunc(func(ctx context.Context, path string) error {
			return remote.HandleRequest(ctx, path, stdout)
		})
	}
	newInteractive = func(stdout io.Writer) launch.InteractiveApp {
		return app.New(app.Options{Stdout: stdout})
	}
)

func main() {
	if code := run(os.Args, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	intent := router.Classify(args)

	opts := logging.Options{Console: stderr}
	if intent.Kind == router.KindShowHelp || intent.Kind == router.KindShowVersion {
		// print modes leave no trace in the state dir
		opts.FilePath = "-"
	}
	closer, err := initLogging(opts)
	if err != nil {
		fmt.Fprintf(stderr, "cunzhi: could not initialize logging: %v\n", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	selector := launch.Selector{
		LoadConfig: loadRemoteResponder,
		Warn:       logging.Warn,
	}
	mode := selector.Select(intent)
	logging.Logger.Debug().Str("intent", string(intent.Kind)).Str("mode", string(mode.Kind)).Msg("mode selected")

	dispatcher := launch.Dispatcher{
		Stdout:      stdout,
		Catalog:     i18n.LoadCatalog(""),
		Version:     version,
		Headless:    newHeadless(stdout),
		Interactive: newInteractive(stdout),
		LogError:    logging.Error,
	}
	return int(dispatcher.Run(context.Background(), mode))
}
