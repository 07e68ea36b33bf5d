package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/wvhulle/cargo-dirty/pkg/analysis"
	"github.com/wvhulle/cargo-dirty/pkg/cargo"
	"github.com/wvhulle/cargo-dirty/pkg/config"
)

const dirtyLog = ` INFO prepare_target{force=false package_id=libz-sys v1.1.23 target="libz-sys"}: cargo::core::compiler::fingerprint: dirty: EnvVarChanged { name: "CC", old_value: Some("gcc"), new_value: Some("clang") }
 INFO prepare_target{force=false package_id=app v0.1.0 target="app"}: cargo::core::compiler::fingerprint: dirty: UnitDependencyInfoChanged { old_name: "libz_sys", old_fingerprint: 1, new_name: "libz_sys", new_fingerprint: 2 }
`

func newTestApp(cfg *config.Config, stderr string, out *bytes.Buffer) *app {
	return &app{
		cfg:      cfg,
		project:  cargo.Project{Dir: "/proj", Name: "app"},
		analyzer: analysis.New(&cargo.MockRunner{StderrOutput: stderr}, analysis.Options{Command: cfg.Command}),
		out:      out,
	}
}

func TestJSONOutputIsChainArray(t *testing.T) {
	var buf bytes.Buffer
	a := newTestApp(&config.Config{Command: "check", JSON: true}, dirtyLog, &buf)

	if err := a.analyzeAndReport(context.Background()); err != nil {
		t.Fatalf("analyzeAndReport: %v", err)
	}

	var chains []struct {
		RootCause struct {
			Reason map[string]any `json:"reason"`
		} `json:"root_cause"`
		Cascades []json.RawMessage `json:"cascades"`
	}
	if err := json.Unmarshal(buf.Bytes(), &chains); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(chains) != 1 {
		t.Fatalf("got %d chains, want 1", len(chains))
	}
	if chains[0].RootCause.Reason["kind"] != "env_var_changed" {
		t.Errorf("root kind = %v", chains[0].RootCause.Reason["kind"])
	}
	if len(chains[0].Cascades) != 1 {
		t.Errorf("got %d cascades, want 1", len(chains[0].Cascades))
	}
}

func TestJSONOutputEmptyAnalysis(t *testing.T) {
	var buf bytes.Buffer
	a := newTestApp(&config.Config{Command: "check", JSON: true}, "    Finished dev target(s) in 0.05s\n", &buf)

	if err := a.analyzeAndReport(context.Background()); err != nil {
		t.Fatalf("analyzeAndReport: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("output = %q, want []", got)
	}
}

func TestReportOutputIsReportObject(t *testing.T) {
	var buf bytes.Buffer
	a := newTestApp(&config.Config{Command: "check", Report: true}, dirtyLog, &buf)

	if err := a.analyzeAndReport(context.Background()); err != nil {
		t.Fatalf("analyzeAndReport: %v", err)
	}

	var report struct {
		Project       string `json:"project"`
		TotalRebuilds int    `json:"total_rebuilds"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not a JSON object: %v\n%s", err, buf.String())
	}
	if report.Project != "app" || report.TotalRebuilds != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestConsoleOutputByDefault(t *testing.T) {
	var buf bytes.Buffer
	a := newTestApp(&config.Config{Command: "check"}, dirtyLog, &buf)

	if err := a.analyzeAndReport(context.Background()); err != nil {
		t.Fatalf("analyzeAndReport: %v", err)
	}
	if !strings.Contains(buf.String(), "1 root cause, 2 rebuilds total") {
		t.Errorf("console output = %q", buf.String())
	}
}
