// Package analysis orchestrates one rebuild-analysis run: spawn cargo with
// fingerprint tracing, stream its stderr through the parser, and populate
// the causality graph.
package analysis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wvhulle/cargo-dirty/pkg/cargo"
	"github.com/wvhulle/cargo-dirty/pkg/fingerprint"
	"github.com/wvhulle/cargo-dirty/pkg/graph"
	"github.com/wvhulle/cargo-dirty/pkg/logging"
	"github.com/wvhulle/cargo-dirty/pkg/model"
)

// ErrEmptyCommand means the configured cargo command was blank.
var ErrEmptyCommand = errors.New("empty cargo command")

// maxLineSize bounds stderr lines. Fingerprint lines embed full
// absolute paths and env values (PATH can be enormous under nix). Lines
// over the bound are skipped, never fatal.
const maxLineSize = 1 << 20

// Options configures an analyzer.
type Options struct {
	// Command is the cargo subcommand to run, e.g. "check" or
	// "build --release". Split on whitespace.
	Command string
	// ExtraArgs are appended verbatim after the command.
	ExtraArgs []string
	// KeepUnknown retains dirty-flagged lines that no known shape parsed
	// as Unknown nodes instead of dropping them.
	KeepUnknown bool
}

// Analyzer runs cargo and turns its fingerprint log into a RebuildGraph.
// One analyzer may run repeatedly (watch mode); each run produces a fresh
// graph.
type Analyzer struct {
	runner cargo.Runner
	opts   Options
}

// New creates an analyzer.
func New(runner cargo.Runner, opts Options) *Analyzer {
	return &Analyzer{runner: runner, opts: opts}
}

// Run executes one analysis of the given project. It completes normally
// even when cargo itself exits nonzero: a failing build still emits the
// fingerprint verdicts that explain what was going to rebuild.
func (a *Analyzer) Run(ctx context.Context, project cargo.Project) (*graph.RebuildGraph, error) {
	args := strings.Fields(a.opts.Command)
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	args = append(args, a.opts.ExtraArgs...)

	logging.Info("analyzing cargo project",
		"project", project.Name, "dir", project.Dir, "command", strings.Join(args, " "))

	inv, err := a.runner.Run(ctx, project.Dir, args)
	if err != nil {
		return nil, fmt.Errorf("running cargo: %w", err)
	}

	g, err := a.collect(inv)
	if err != nil {
		return nil, err
	}

	if waitErr := inv.Wait(); waitErr != nil {
		// Nonzero exit is expected when the project does not compile; the
		// fingerprint log was already consumed.
		logging.Warn("cargo exited with error", "error", waitErr)
	}

	for _, cycle := range g.Cycles() {
		names := make([]string, 0, len(cycle))
		for _, n := range cycle {
			names = append(names, n.Package.String())
		}
		logging.Warn("circular rebuild attribution in cargo log",
			"packages", strings.Join(names, " -> "))
	}

	return g, nil
}

// collect scans the stderr stream line by line. Every failure to parse a
// line is silent by design: the log format is unstable and forward
// compatibility requires skipping what we do not recognize.
func (a *Analyzer) collect(inv cargo.Invocation) (*graph.RebuildGraph, error) {
	g := graph.New()

	reader := bufio.NewReaderSize(inv.Stderr(), 64*1024)
	for {
		line, tooLong, err := readLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading cargo log: %w", err)
		}
		if tooLong {
			logging.Warn("skipping over-long log line", "limit", maxLineSize)
			continue
		}
		if !isCandidate(line) {
			continue
		}
		logging.Debug("rebuild trigger line", "line", line)

		if entry, ok := fingerprint.ParseEntry(line); ok {
			if _, added := g.AddNode(model.NewRebuildNode(entry.Package, entry.Reason)); added {
				logging.Debug("recorded rebuild",
					"package", entry.Package.String(), "reason", entry.Reason.Summary())
			}
			continue
		}

		if payload, ok := fingerprint.DirtyPayload(line); ok {
			if a.opts.KeepUnknown {
				pkg := fingerprint.ExtractPackageContext(line)
				g.AddNode(model.NewRebuildNode(pkg, model.Unknown{Raw: payload}))
			} else {
				logging.Debug("unparsed dirty line", "payload", payload)
			}
		}
	}

	return g, nil
}

// readLine reads one full line, reporting lines over maxLineSize as too
// long instead of returning them. The overflowing bytes are drained so the
// stream position stays on line boundaries.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// isCandidate filters for fingerprint dirtiness verdicts. The stale:
// marker is matched so its lines reach debug logging, but only dirty:
// payloads are ever parsed.
func isCandidate(line string) bool {
	return strings.Contains(line, "fingerprint") &&
		(strings.Contains(line, "dirty:") || strings.Contains(line, "stale:"))
}
