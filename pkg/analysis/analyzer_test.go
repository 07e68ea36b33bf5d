package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wvhulle/cargo-dirty/pkg/cargo"
	"github.com/wvhulle/cargo-dirty/pkg/model"
)

// cargoLog is a representative fingerprint trace: one env-var root cause
// on a sys crate, its cascade into the app, plus noise that must be
// ignored.
const cargoLog = `   Compiling libz-sys v1.1.23
 INFO prepare_target{force=false package_id=libz-sys v1.1.23 target="build-script-build"}: cargo::core::compiler::fingerprint: dirty: EnvVarChanged { name: "CC", old_value: Some("gcc"), new_value: Some("clang") }
 INFO prepare_target{force=false package_id=libz-sys v1.1.23 target="libz-sys"}: cargo::core::compiler::fingerprint: dirty: EnvVarChanged { name: "CC", old_value: Some("gcc"), new_value: Some("clang") }
 INFO prepare_target{force=false package_id=app v0.1.0 target="app"}: cargo::core::compiler::fingerprint: dirty: UnitDependencyInfoChanged { old_name: "libz_sys", old_fingerprint: 111, new_name: "libz_sys", new_fingerprint: 222 }
 INFO prepare_target{package_id=app v0.1.0 target="app"}: cargo::core::compiler::fingerprint: stale: ChangedFile { reference: "/a", reference_mtime: FileTime { seconds: 1, nanos: 0 }, stale: "/b", stale_mtime: FileTime { seconds: 2, nanos: 0 } }
   Compiling app v0.1.0
warning: unused variable
`

func TestRunBuildsGraph(t *testing.T) {
	runner := &cargo.MockRunner{StderrOutput: cargoLog}
	a := New(runner, Options{Command: "check"})

	g, err := a.Run(context.Background(), cargo.Project{Dir: "/proj", Name: "app"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The duplicated env verdict (one per target kind) collapses to one
	// node; the stale: line is never parsed.
	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	chains := g.RootCauseChains()
	if len(chains) != 1 {
		t.Fatalf("got %d chains, want 1", len(chains))
	}
	if chains[0].RootCause.Reason.DedupKey() != "env:CC" {
		t.Errorf("root cause = %q", chains[0].RootCause.Reason.DedupKey())
	}
	if len(chains[0].AffectedPackages) != 1 {
		t.Errorf("got %d affected, want 1", len(chains[0].AffectedPackages))
	}

	if runner.LastDir != "/proj" {
		t.Errorf("LastDir = %q", runner.LastDir)
	}
	if len(runner.LastArgs) != 1 || runner.LastArgs[0] != "check" {
		t.Errorf("LastArgs = %v", runner.LastArgs)
	}
}

func TestRunSplitsCommandAndAppendsExtraArgs(t *testing.T) {
	runner := &cargo.MockRunner{}
	a := New(runner, Options{Command: "build --release", ExtraArgs: []string{"--lib"}})

	if _, err := a.Run(context.Background(), cargo.Project{Dir: "/proj"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"build", "--release", "--lib"}
	if len(runner.LastArgs) != len(want) {
		t.Fatalf("LastArgs = %v, want %v", runner.LastArgs, want)
	}
	for i := range want {
		if runner.LastArgs[i] != want[i] {
			t.Errorf("LastArgs[%d] = %q, want %q", i, runner.LastArgs[i], want[i])
		}
	}
}

func TestRunEmptyCommand(t *testing.T) {
	a := New(&cargo.MockRunner{}, Options{Command: "   "})
	if _, err := a.Run(context.Background(), cargo.Project{}); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("err = %v, want ErrEmptyCommand", err)
	}
}

func TestRunRunnerError(t *testing.T) {
	boom := errors.New("cargo not on PATH")
	a := New(&cargo.MockRunner{RunErr: boom}, Options{Command: "check"})
	if _, err := a.Run(context.Background(), cargo.Project{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped runner error", err)
	}
}

func TestRunNonzeroExitIsNotFatal(t *testing.T) {
	runner := &cargo.MockRunner{
		StderrOutput: ` INFO prepare_target{package_id=app v0.1.0 target="app"}: cargo::core::compiler::fingerprint: dirty: TargetConfigurationChanged` + "\n",
		WaitErr:      errors.New("exit status 101"),
	}
	a := New(runner, Options{Command: "check"})

	g, err := a.Run(context.Background(), cargo.Project{Dir: "/proj"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestRunKeepUnknown(t *testing.T) {
	log := ` INFO prepare_target{package_id=app v0.1.0 target="app"}: cargo::core::compiler::fingerprint: dirty: LocalLengthsChanged(3, 2)` + "\n"

	for _, tt := range []struct {
		name        string
		keepUnknown bool
		wantLen     int
	}{
		{"dropped by default", false, 0},
		{"retained when asked", true, 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			runner := &cargo.MockRunner{StderrOutput: log}
			a := New(runner, Options{Command: "check", KeepUnknown: tt.keepUnknown})
			g, err := a.Run(context.Background(), cargo.Project{Dir: "/proj"})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if g.Len() != tt.wantLen {
				t.Fatalf("Len() = %d, want %d", g.Len(), tt.wantLen)
			}
			if tt.keepUnknown {
				reason := g.Nodes()[0].Reason
				u, ok := reason.(model.Unknown)
				if !ok {
					t.Fatalf("got %T, want Unknown", reason)
				}
				if !strings.Contains(u.Raw, "LocalLengthsChanged") {
					t.Errorf("Raw = %q", u.Raw)
				}
			}
		})
	}
}

func TestRunSkipsOverlongLines(t *testing.T) {
	// One pathological line (a dirty marker followed by more than the line
	// bound) must be skipped without aborting the rest of the stream.
	huge := "cargo::core::compiler::fingerprint: dirty: EnvVarChanged { name: \"PATH\", old_value: Some(\"" +
		strings.Repeat("x", maxLineSize+1) + "\"), new_value: None }\n"
	valid := ` INFO prepare_target{package_id=app v0.1.0 target="app"}: cargo::core::compiler::fingerprint: dirty: TargetConfigurationChanged` + "\n"

	runner := &cargo.MockRunner{StderrOutput: huge + valid}
	a := New(runner, Options{Command: "check"})

	g, err := a.Run(context.Background(), cargo.Project{Dir: "/proj"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	if g.Nodes()[0].Reason.DedupKey() != "config" {
		t.Errorf("kept node = %q, want the trigger after the over-long line", g.Nodes()[0].Reason.DedupKey())
	}
}

func TestRunCleanBuild(t *testing.T) {
	runner := &cargo.MockRunner{StderrOutput: "    Finished dev [unoptimized + debuginfo] target(s) in 0.05s\n"}
	a := New(runner, Options{Command: "check"})

	g, err := a.Run(context.Background(), cargo.Project{Dir: "/proj"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !g.IsEmpty() {
		t.Errorf("clean build produced %d nodes", g.Len())
	}
}

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"dirty verdict", "cargo::core::compiler::fingerprint: dirty: TargetConfigurationChanged", true},
		{"stale line", "cargo::core::compiler::fingerprint: stale: ChangedFile { }", true},
		{"fingerprint info only", "cargo::core::compiler::fingerprint: max output mtime", false},
		{"dirty without fingerprint", "the floor is dirty: very", false},
		{"compiler noise", "   Compiling app v0.1.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCandidate(tt.line); got != tt.want {
				t.Errorf("isCandidate(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
