package cargo

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// fingerprintLog enables cargo's fingerprint tracing on stderr. The
// subsystem logs its dirtiness verdicts at info level.
const fingerprintLog = "cargo::core::compiler::fingerprint=info"

// Invocation is a started cargo process. Stderr must be drained before
// calling Wait.
type Invocation interface {
	Stderr() io.Reader
	Wait() error
}

// Runner starts cargo commands. The interface exists so analysis can be
// tested against canned log output without a cargo toolchain.
type Runner interface {
	Run(ctx context.Context, dir string, args []string) (Invocation, error)
}

// ExecRunner runs the real cargo binary.
type ExecRunner struct{}

// NewRunner creates the default cargo runner.
func NewRunner() Runner {
	return &ExecRunner{}
}

// Run starts `cargo <args...>` in dir with fingerprint tracing enabled and
// its stderr piped. It respects the provided context for cancellation.
func (*ExecRunner) Run(ctx context.Context, dir string, args []string) (Invocation, error) {
	cmd := exec.CommandContext(ctx, "cargo", args...)
	cmd.Dir = dir
	cmd.Env = append(cmd.Environ(), "CARGO_LOG="+fingerprintLog)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("piping cargo stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting cargo %v: %w", args, err)
	}
	return &execInvocation{cmd: cmd, stderr: stderr}, nil
}

type execInvocation struct {
	cmd    *exec.Cmd
	stderr io.ReadCloser
}

func (i *execInvocation) Stderr() io.Reader {
	return i.stderr
}

func (i *execInvocation) Wait() error {
	return i.cmd.Wait()
}
