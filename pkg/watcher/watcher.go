// Package watcher monitors a cargo project for changes that can trigger
// rebuilds, so watch mode knows when to re-run the analysis.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wvhulle/cargo-dirty/pkg/logging"
)

// ChangeType classifies what part of the project changed.
type ChangeType int

const (
	// ChangeTypeManifest is a Cargo.toml or Cargo.lock change.
	ChangeTypeManifest ChangeType = iota
	// ChangeTypeBuildScript is a build.rs change.
	ChangeTypeBuildScript
	// ChangeTypeSource is any other .rs file change.
	ChangeTypeSource
)

// ChangeEvent is a batch of filesystem changes of one type.
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// ProjectWatcher watches a cargo project tree.
type ProjectWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan ChangeEvent
}

// NewProjectWatcher creates a watcher rooted at the project directory.
func NewProjectWatcher(dir string) (*ProjectWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &ProjectWatcher{
		watcher: w,
		dir:     dir,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start registers the project's directories and begins emitting events.
func (pw *ProjectWatcher) Start(ctx context.Context) error {
	if err := pw.watchProjectDirs(); err != nil {
		return err
	}
	logging.Info("watching project", "dir", pw.dir)
	go pw.processEvents(ctx)
	return nil
}

// watchProjectDirs walks the project and watches every directory except
// build output and VCS metadata. fsnotify is not recursive, so each
// directory is added individually.
func (pw *ProjectWatcher) watchProjectDirs() error {
	count := 0
	err := filepath.Walk(pw.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != pw.dir && (name == "target" || name == ".git" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		if err := pw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking project: %w", err)
	}
	logging.Info("monitoring directories", "count", count)
	return nil
}

// processEvents batches raw fsnotify events by change type with a short
// flush window, so a save storm becomes one event per type.
func (pw *ProjectWatcher) processEvents(ctx context.Context) {
	batches := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		for _, ct := range []ChangeType{ChangeTypeManifest, ChangeTypeBuildScript, ChangeTypeSource} {
			if paths := batches[ct]; len(paths) > 0 {
				pw.events <- ChangeEvent{Type: ct, Paths: paths, Timestamp: time.Now()}
			}
		}
		batches = make(map[ChangeType][]string)
	}

	for {
		select {
		case <-ctx.Done():
			pw.watcher.Close()
			close(pw.events)
			return

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			ct, relevant := Classify(event.Name)
			if !relevant {
				continue
			}
			batches[ct] = append(batches[ct], event.Name)
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			flush()

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Classify maps a path to a change type and whether it matters to cargo's
// fingerprints at all.
func Classify(path string) (ChangeType, bool) {
	switch filepath.Base(path) {
	case "Cargo.toml", "Cargo.lock":
		return ChangeTypeManifest, true
	case "build.rs":
		return ChangeTypeBuildScript, true
	}
	if strings.HasSuffix(path, ".rs") {
		return ChangeTypeSource, true
	}
	return 0, false
}

// Events returns the channel of change events.
func (pw *ProjectWatcher) Events() <-chan ChangeEvent {
	return pw.events
}
