// Package daemon runs the watch-and-serve mode: a local preview server over
// the output directory plus automatic rebuilds on content changes and on a
// configurable schedule.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/anrosca/softice/internal/config"
	"github.com/anrosca/softice/internal/events"
	"github.com/anrosca/softice/internal/logfields"
	"github.com/anrosca/softice/internal/metrics"
	"github.com/anrosca/softice/internal/site"
	"github.com/anrosca/softice/internal/state"
)

// Daemon owns the preview server, the file watcher and the rebuild loop.
// Rebuilds are serialized; a failed rebuild keeps the last good site on disk
// and the server keeps serving it.
type Daemon struct {
	cfg            *config.Config
	opts           site.BuildOptions
	recorder       metrics.Recorder
	metricsHandler http.Handler
	store          *state.Store
	events         *events.Publisher

	mu     sync.Mutex // serializes rebuilds
	lastMu sync.RWMutex
	last   *site.BuildReport
}

// New creates a daemon for the given configuration.
func New(cfg *config.Config, opts site.BuildOptions) *Daemon {
	return &Daemon{cfg: cfg, opts: opts, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (fluent helper).
func (d *Daemon) WithRecorder(r metrics.Recorder) *Daemon {
	if r != nil {
		d.recorder = r
	}
	return d
}

// WithMetricsHandler exposes a /metrics scrape endpoint on the preview server.
func (d *Daemon) WithMetricsHandler(h http.Handler) *Daemon { d.metricsHandler = h; return d }

// WithStore attaches the build history store (fluent helper).
func (d *Daemon) WithStore(s *state.Store) *Daemon { d.store = s; return d }

// WithEvents attaches the lifecycle event publisher (fluent helper).
func (d *Daemon) WithEvents(ev *events.Publisher) *Daemon { d.events = ev; return d }

// Run builds once, then serves and rebuilds until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	// The initial build may fail (broken draft mid-edit); the daemon still
	// starts and rebuilds on the next change.
	d.rebuild(ctx, "startup")

	debouncer := NewDebouncer(
		time.Duration(d.cfg.Daemon.DebounceMS)*time.Millisecond,
		10*time.Duration(d.cfg.Daemon.DebounceMS)*time.Millisecond,
	)
	go debouncer.Run(ctx)

	watcher, err := NewWatcher(debouncer,
		d.cfg.Build.ContentDir,
		d.cfg.Build.StaticDir,
		d.cfg.Build.LayoutsDir,
	)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	if d.opts.ConfigPath != "" {
		if err := watcher.WatchFile(d.opts.ConfigPath); err != nil {
			slog.Warn("Config file not watched", logfields.Error(err))
		}
	}
	go watcher.Run(ctx)

	scheduler, err := d.startScheduler(ctx, debouncer)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	serverErr := make(chan error, 1)
	server := d.newServer()
	go func() {
		slog.Info("Preview server listening",
			logfields.URL("http://"+d.cfg.Daemon.Listen),
			logfields.Path(d.opts.OutputDir))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Preview server shutdown", logfields.Error(err))
			}
			return nil
		case err := <-serverErr:
			return fmt.Errorf("preview server: %w", err)
		case <-debouncer.C():
			d.rebuild(ctx, "change")
		}
	}
}

// startScheduler registers the periodic rebuild job, when configured.
func (d *Daemon) startScheduler(ctx context.Context, debouncer *Debouncer) (gocron.Scheduler, error) {
	if d.cfg.Daemon.RebuildInterval == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(d.cfg.Daemon.RebuildInterval)
	if err != nil {
		return nil, fmt.Errorf("parse rebuild interval: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Debug("Scheduled rebuild tick")
			debouncer.Trigger()
		}),
		gocron.WithName("scheduled-rebuild"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule rebuild job: %w", err)
	}
	scheduler.Start()
	slog.Info("Scheduled rebuilds enabled", slog.String("interval", interval.String()))
	return scheduler, nil
}

// rebuild runs one build. Failures are logged; the previous output stays.
func (d *Daemon) rebuild(ctx context.Context, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	slog.Info("Rebuilding site", slog.String("reason", reason))

	// Pick up config edits; a broken config keeps the last good one.
	if d.opts.ConfigPath != "" {
		if cfg, err := config.Load(d.opts.ConfigPath); err == nil {
			d.adoptConfig(cfg)
		} else {
			slog.Warn("Config reload failed, keeping previous", logfields.Error(err))
		}
	}

	gen := site.NewGenerator(d.cfg, d.opts).
		WithRecorder(d.recorder).
		WithStore(d.store)

	report, err := gen.Build(ctx)
	d.setLast(report)

	switch {
	case err != nil:
		d.events.Publish(events.TypeBuildFailed, report.BuildID,
			map[string]string{"reason": reason, "error": err.Error()})
		slog.Error("Rebuild failed, keeping previous site", logfields.Error(err))
	default:
		d.events.Publish(events.TypeBuildCompleted, report.BuildID,
			map[string]string{"reason": reason, "outcome": string(report.Outcome)})
	}
}

// adoptConfig swaps in a reloaded configuration. The watcher roots and the
// preview server are wired at startup, so the input/output directories and
// the listen address stay pinned to their startup values until a restart;
// everything else (title, params, menus) takes effect on the next build.
func (d *Daemon) adoptConfig(cfg *config.Config) {
	if cfg.Build.ContentDir != d.cfg.Build.ContentDir ||
		cfg.Build.StaticDir != d.cfg.Build.StaticDir ||
		cfg.Build.LayoutsDir != d.cfg.Build.LayoutsDir ||
		cfg.Build.OutputDir != d.cfg.Build.OutputDir ||
		cfg.Daemon.Listen != d.cfg.Daemon.Listen {
		slog.Warn("Directory and listen changes take effect after a restart")
	}
	cfg.Build.ContentDir = d.cfg.Build.ContentDir
	cfg.Build.StaticDir = d.cfg.Build.StaticDir
	cfg.Build.LayoutsDir = d.cfg.Build.LayoutsDir
	cfg.Build.OutputDir = d.cfg.Build.OutputDir
	cfg.Daemon.Listen = d.cfg.Daemon.Listen
	d.cfg = cfg
}

func (d *Daemon) setLast(report *site.BuildReport) {
	d.lastMu.Lock()
	defer d.lastMu.Unlock()
	d.last = report
}

func (d *Daemon) lastReport() *site.BuildReport {
	d.lastMu.RLock()
	defer d.lastMu.RUnlock()
	return d.last
}
