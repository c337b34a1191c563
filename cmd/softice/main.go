package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/anrosca/softice/internal/config"
	"github.com/anrosca/softice/internal/content"
	"github.com/anrosca/softice/internal/daemon"
	"github.com/anrosca/softice/internal/events"
	"github.com/anrosca/softice/internal/frontmatter"
	"github.com/anrosca/softice/internal/logfields"
	"github.com/anrosca/softice/internal/metrics"
	"github.com/anrosca/softice/internal/publish"
	"github.com/anrosca/softice/internal/retry"
	"github.com/anrosca/softice/internal/site"
	"github.com/anrosca/softice/internal/state"
)

var version = "dev"

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"site.toml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory (overrides config)"`
		Drafts bool   `short:"D" help:"Include draft posts"`
		Future bool   `short:"F" help:"Include future-dated posts"`
		Strict bool   `help:"Fail the build on broken internal references"`
	} `cmd:"" help:"Build the site into the output directory"`

	Serve struct {
		Drafts bool `short:"D" help:"Include draft posts"`
		Future bool `short:"F" help:"Include future-dated posts"`
	} `cmd:"" help:"Serve a local preview and rebuild on changes"`

	Publish struct {
		DryRun bool `help:"Build and commit locally, never push"`
		Strict bool `help:"Fail on broken internal references"`
	} `cmd:"" help:"Build the site and push it to the publish branch"`

	New struct {
		Title string `arg:"" help:"Post title"`
	} `cmd:"" help:"Scaffold a new draft post"`

	Check struct{} `cmd:"" help:"Validate content and internal references without publishing"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Create a starter configuration file"`

	Version struct{} `cmd:"" help:"Print the version"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(ctx)
	case "serve":
		err = runServe(ctx)
	case "publish":
		err = runPublish(ctx)
	case "new <title>":
		err = runNew(CLI.New.Title)
	case "check":
		err = runCheck(ctx)
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "version":
		fmt.Println("softice " + version)
	}
	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

func runBuild(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	store := openStore(cfg)
	defer store.Close()
	ev := connectEvents(cfg)
	defer ev.Close()

	opts := site.BuildOptions{
		IncludeDrafts: CLI.Build.Drafts,
		IncludeFuture: CLI.Build.Future,
		StrictLinks:   CLI.Build.Strict,
		OutputDir:     CLI.Build.Output,
		ConfigPath:    CLI.Config,
	}
	_, err = buildOnce(ctx, cfg, opts, store, ev)
	return err
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	store := openStore(cfg)
	defer store.Close()
	ev := connectEvents(cfg)
	defer ev.Close()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	opts := site.BuildOptions{
		IncludeDrafts: CLI.Serve.Drafts,
		IncludeFuture: CLI.Serve.Future,
		OutputDir:     cfg.Build.OutputDir,
		ConfigPath:    CLI.Config,
	}
	return daemon.New(cfg, opts).
		WithRecorder(recorder).
		WithMetricsHandler(metrics.Handler(registry)).
		WithStore(store).
		WithEvents(ev).
		Run(ctx)
}

func runPublish(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	store := openStore(cfg)
	defer store.Close()
	ev := connectEvents(cfg)
	defer ev.Close()

	opts := site.BuildOptions{
		StrictLinks: CLI.Publish.Strict,
		OutputDir:   cfg.Build.OutputDir,
		ConfigPath:  CLI.Config,
	}
	report, err := buildOnce(ctx, cfg, opts, store, ev)
	if err != nil {
		return err
	}

	publisher := publish.NewPublisher(cfg.Publish, retryPolicy(cfg)).WithEvents(ev)
	result, err := publisher.Publish(ctx, opts.OutputDir, report.BuildID, publish.Options{
		DryRun: CLI.Publish.DryRun,
	})
	if err != nil {
		return err
	}
	if result.NoChanges {
		slog.Info("Nothing to publish, site is up to date")
	}
	return nil
}

// runCheck builds the whole site, drafts included, into a throwaway
// directory with strict link checking. It is the CI gate: exit status is
// the verdict.
func runCheck(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp("", "softice-check-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	opts := site.BuildOptions{
		IncludeDrafts: true,
		IncludeFuture: true,
		StrictLinks:   true,
		OutputDir:     filepath.Join(tmp, "site"),
		ConfigPath:    CLI.Config,
	}
	report, err := site.NewGenerator(cfg, opts).Build(ctx)
	if err != nil {
		return err
	}
	slog.Info("Check passed",
		logfields.Pages(report.Pages),
		slog.Int("posts", report.Posts))
	return nil
}

func runNew(title string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	slug := content.Slugify(title)
	if slug == "" {
		return fmt.Errorf("cannot derive a slug from title %q", title)
	}
	path := filepath.Join(cfg.Build.ContentDir, "posts", slug+".md")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("post already exists: %s", path)
	}

	block, err := frontmatter.Serialize(frontmatter.Meta{
		Title: title,
		Date:  time.Now(),
		Draft: true,
	}, frontmatter.Style{})
	if err != nil {
		return err
	}
	doc := frontmatter.Join(block, []byte("\n"), frontmatter.FormatYAML, frontmatter.Style{HasTrailingNewline: true})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return err
	}
	slog.Info("Created post", logfields.Path(path))
	return nil
}

// buildOnce runs a single build with lifecycle events around it.
func buildOnce(ctx context.Context, cfg *config.Config, opts site.BuildOptions, store *state.Store, ev *events.Publisher) (*site.BuildReport, error) {
	ev.Publish(events.TypeBuildStarted, "", map[string]string{"output": opts.OutputDir})

	report, err := site.NewGenerator(cfg, opts).WithStore(store).Build(ctx)
	if err != nil {
		ev.Publish(events.TypeBuildFailed, report.BuildID, map[string]string{"error": err.Error()})
		return nil, err
	}
	ev.Publish(events.TypeBuildCompleted, report.BuildID, map[string]string{
		"outcome": string(report.Outcome),
		"pages":   fmt.Sprint(report.Pages),
	})

	for _, w := range report.Warnings {
		slog.Warn("Build warning", slog.String("detail", w))
	}
	return report, nil
}

func retryPolicy(cfg *config.Config) retry.Policy {
	rc := cfg.Build.Retry
	if rc == (config.RetryConfig{}) {
		return retry.DefaultPolicy()
	}
	return retry.NewPolicy(
		retry.BackoffMode(rc.Backoff),
		time.Duration(rc.InitialMS)*time.Millisecond,
		time.Duration(rc.MaxMS)*time.Millisecond,
		rc.MaxRetries,
	)
}

func openStore(cfg *config.Config) *state.Store {
	store, err := state.Open(cfg.Build.StateDB)
	if err != nil {
		slog.Warn("Build history disabled", logfields.Error(err))
		return nil
	}
	return store
}

func connectEvents(cfg *config.Config) *events.Publisher {
	ev, err := events.Connect(config.NATSURL(), cfg.Events.Subject)
	if err != nil {
		slog.Warn("Event publishing disabled", logfields.Error(err))
		return nil
	}
	return ev
}
