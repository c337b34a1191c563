package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDebouncer(50*time.Millisecond, time.Second)
	go d.Run(ctx)

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("expected a rebuild signal after the quiet window")
	}

	// The burst must yield exactly one signal.
	select {
	case <-d.C():
		t.Fatal("burst produced a second rebuild signal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDebouncerMaxDelayBoundsPostponement(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Quiet window that a steady stream of triggers keeps resetting.
	d := NewDebouncer(100*time.Millisecond, 300*time.Millisecond)
	go d.Run(ctx)

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(40 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				d.Trigger()
			}
		}
	}()
	defer close(stop)

	d.Trigger()
	start := time.Now()
	select {
	case <-d.C():
		require.Less(t, time.Since(start), 800*time.Millisecond,
			"max delay did not bound a steady change stream")
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild never fired despite max delay")
	}
}

func TestDebouncerTriggerNeverBlocks(t *testing.T) {
	d := NewDebouncer(time.Minute, time.Hour)
	// No Run goroutine; Trigger must still return.
	for i := 0; i < 100; i++ {
		d.Trigger()
	}
}
