package daemon

import (
	"context"
	"time"
)

// Debouncer coalesces bursts of change notifications into single rebuild
// signals: a rebuild fires once the input has been quiet for the quiet
// window, but never later than maxDelay after the first notification of a
// burst. Saving ten files in two seconds yields one rebuild.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration
	in       chan struct{}
	out      chan struct{}
}

// NewDebouncer creates a debouncer with the given quiet window. maxDelay
// bounds how long a steady stream of changes can postpone the rebuild.
func NewDebouncer(quiet, maxDelay time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 10 * quiet
	}
	return &Debouncer{
		quiet:    quiet,
		maxDelay: maxDelay,
		in:       make(chan struct{}, 1),
		out:      make(chan struct{}, 1),
	}
}

// Trigger records a change notification. Never blocks.
func (d *Debouncer) Trigger() {
	select {
	case d.in <- struct{}{}:
	default:
	}
}

// C delivers one signal per coalesced burst.
func (d *Debouncer) C() <-chan struct{} { return d.out }

// Run drives the debouncer until the context is canceled.
func (d *Debouncer) Run(ctx context.Context) {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	pending := false

	fire := func() {
		pending = false
		stopTimer(quietTimer)
		stopTimer(maxTimer)
		select {
		case d.out <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.in:
			resetTimer(quietTimer, d.quiet)
			if !pending {
				pending = true
				resetTimer(maxTimer, d.maxDelay)
			}
		case <-quietTimer.C:
			fire()
		case <-maxTimer.C:
			fire()
		}
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
