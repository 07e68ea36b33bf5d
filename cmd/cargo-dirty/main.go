// Command cargo-dirty explains why cargo rebuilds. It re-runs a cargo
// command with fingerprint tracing enabled, parses the dirtiness verdicts
// from the log, and reports the root causes and the rebuild cascades they
// triggered.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/wvhulle/cargo-dirty/pkg/analysis"
	"github.com/wvhulle/cargo-dirty/pkg/cargo"
	"github.com/wvhulle/cargo-dirty/pkg/config"
	"github.com/wvhulle/cargo-dirty/pkg/logging"
	"github.com/wvhulle/cargo-dirty/pkg/output"
	"github.com/wvhulle/cargo-dirty/pkg/web"
)

func main() {
	f := pflag.NewFlagSet("cargo-dirty", pflag.ExitOnError)
	f.StringP("path", "p", ".", "Path to the cargo project")
	f.String("command", "check", "Cargo command to analyze")
	f.Bool("json", false, "Print the root-cause chains as a JSON array instead of a console report")
	f.Bool("report", false, "Print the detailed analysis report as JSON")
	f.Bool("unknown", false, "Retain unrecognized dirty verdicts as unknown triggers")
	f.Bool("explain", false, "Include explanations and suggestions per root cause")
	f.Bool("web", false, "Serve the analysis over HTTP instead of printing")
	f.Int("port", 8080, "Port for the web server (with --web)")
	f.Bool("watch", false, "Re-run the analysis when project files change")
	f.CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	f.String("verbosity", "", "Explicit log level (debug, info, warn, error)")
	f.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cargo-dirty [flags] [-- cargo args...]\n\n")
		f.PrintDefaults()
	}
	_ = f.Parse(os.Args[1:])

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := logging.LevelFromVerbosity(cfg.VerboseCnt, cfg.Verbosity)
	if cfg.JSON || cfg.Report {
		// Keep stderr machine-readable alongside the JSON output on stdout.
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	project, err := cargo.FindProject(cfg.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	analyzer := analysis.New(cargo.NewRunner(), analysis.Options{
		Command:     cfg.Command,
		ExtraArgs:   cfg.CargoArgs,
		KeepUnknown: cfg.Unknown,
	})

	app := &app{cfg: cfg, project: project, analyzer: analyzer, out: os.Stdout}
	if err := app.run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	project  cargo.Project
	analyzer *analysis.Analyzer
	server   *web.Server
	out      io.Writer
}

func (a *app) run(ctx context.Context) error {
	if a.cfg.Web {
		return a.runWeb(ctx)
	}
	if a.cfg.Watch {
		if err := a.analyzeAndReport(ctx); err != nil {
			return err
		}
		return a.watchLoop(ctx)
	}
	return a.analyzeAndReport(ctx)
}

// analyzeAndReport performs one analysis run and emits it on the
// configured channel: JSON or console when printing, the web server when
// serving. The plain --json form is the ordered chain array ([] for a
// clean build); --report carries the full report object.
func (a *app) analyzeAndReport(ctx context.Context) error {
	g, err := a.analyzer.Run(ctx, a.project)
	if err != nil {
		return err
	}

	if a.server != nil {
		a.server.SetReport(output.BuildReport(a.project.Name, g))
		return nil
	}
	switch {
	case a.cfg.Report:
		return output.WriteReportJSON(a.out, output.BuildReport(a.project.Name, g))
	case a.cfg.JSON:
		return output.WriteChainsJSON(a.out, g)
	default:
		output.PrintRebuildReport(a.out, a.project.Name, g, a.cfg.Explain)
		return nil
	}
}

func (a *app) runWeb(ctx context.Context) error {
	a.server = web.NewServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.cfg.Port)
	}()

	a.server.PublishStatus("running", "analyzing project")
	if err := a.analyzeAndReport(ctx); err != nil {
		a.server.PublishStatus("error", err.Error())
		return err
	}
	a.server.PublishStatus("done", "analysis complete")

	if a.cfg.Watch {
		go func() {
			if err := a.watchLoop(ctx); err != nil {
				logging.Error("watch loop stopped", "error", err)
			}
		}()
	}

	return <-errCh
}

// watchLoop re-runs the analysis whenever the debounced watcher reports a
// relevant change.
func (a *app) watchLoop(ctx context.Context) error {
	pw, err := newProjectWatch(ctx, a.project.Dir)
	if err != nil {
		return err
	}

	for event := range pw {
		logging.Info("project changed, re-analyzing",
			"files", len(event.Paths), "type", int(event.Type))
		if a.server != nil {
			a.server.PublishStatus("running", "project changed, re-analyzing")
		}
		if err := a.analyzeAndReport(ctx); err != nil {
			// A failed run in watch mode is reported but not fatal; the
			// next change gets a fresh attempt.
			logging.Error("analysis failed", "error", err)
			if a.server != nil {
				a.server.PublishStatus("error", err.Error())
			}
			continue
		}
		if a.server != nil {
			a.server.PublishStatus("done", "analysis complete")
		}
	}
	return nil
}
