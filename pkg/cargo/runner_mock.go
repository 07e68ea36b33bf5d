package cargo

import (
	"context"
	"io"
	"strings"
)

// MockRunner is a Runner that replays canned stderr output for tests.
type MockRunner struct {
	StderrOutput string
	RunErr       error
	WaitErr      error

	// LastDir and LastArgs record the most recent invocation.
	LastDir  string
	LastArgs []string
}

func (m *MockRunner) Run(ctx context.Context, dir string, args []string) (Invocation, error) {
	m.LastDir = dir
	m.LastArgs = args
	if m.RunErr != nil {
		return nil, m.RunErr
	}
	return &mockInvocation{stderr: strings.NewReader(m.StderrOutput), waitErr: m.WaitErr}, nil
}

type mockInvocation struct {
	stderr  io.Reader
	waitErr error
}

func (i *mockInvocation) Stderr() io.Reader { return i.stderr }
func (i *mockInvocation) Wait() error       { return i.waitErr }
