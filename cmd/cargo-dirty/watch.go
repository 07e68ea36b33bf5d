package main

import (
	"context"
	"time"

	"github.com/wvhulle/cargo-dirty/pkg/watcher"
)

const (
	debounceQuiet   = 500 * time.Millisecond
	debounceMaxWait = 5 * time.Second
)

// newProjectWatch starts a filesystem watcher on dir and returns a channel
// of debounced change events. Rapid bursts of writes (editor saves, cargo
// itself touching the tree) collapse into a single event.
func newProjectWatch(ctx context.Context, dir string) (<-chan watcher.ChangeEvent, error) {
	pw, err := watcher.NewProjectWatcher(dir)
	if err != nil {
		return nil, err
	}
	if err := pw.Start(ctx); err != nil {
		return nil, err
	}

	deb := watcher.NewDebouncer(pw.Events(), debounceQuiet, debounceMaxWait)
	deb.Start(ctx)
	return deb.Events(), nil
}
