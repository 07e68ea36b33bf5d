package watcher

import (
	"context"
	"time"

	"github.com/wvhulle/cargo-dirty/pkg/logging"
)

// Debouncer coalesces rapid change events so the analyzer is not re-run
// once per saved file. Events accumulate until the input has been quiet
// for quietPeriod, or until maxWait has elapsed since the first buffered
// event.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a debouncer over the given event stream.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing in the background.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		accumulated = make(map[ChangeType][]string)
		eventCount  int
	)

	quiet := time.NewTimer(d.quietPeriod)
	quiet.Stop()
	deadline := time.NewTimer(d.maxWait)
	deadline.Stop()

	flush := func() {
		if eventCount == 0 {
			return
		}
		logging.Debug("flushing accumulated change events", "count", eventCount)

		// Manifest changes first: they invalidate the most.
		for _, ct := range []ChangeType{ChangeTypeManifest, ChangeTypeBuildScript, ChangeTypeSource} {
			if paths := accumulated[ct]; len(paths) > 0 {
				d.output <- ChangeEvent{Type: ct, Paths: paths, Timestamp: time.Now()}
			}
		}

		accumulated = make(map[ChangeType][]string)
		eventCount = 0
		quiet.Stop()
		deadline.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case ev, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			if eventCount == 0 {
				deadline.Reset(d.maxWait)
			}
			accumulated[ev.Type] = append(accumulated[ev.Type], ev.Paths...)
			eventCount++
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Events returns the debounced event stream.
func (d *Debouncer) Events() <-chan ChangeEvent {
	return d.output
}
