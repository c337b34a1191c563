// Package site renders the content corpus into a static site through an
// ordered stage pipeline. Rendering is a pure function of (posts, config,
// templates): stages write into a staging directory which is promoted to the
// output directory only when every stage succeeded.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/anrosca/softice/internal/config"
	"github.com/anrosca/softice/internal/content"
	"github.com/anrosca/softice/internal/logfields"
	"github.com/anrosca/softice/internal/markdown"
	"github.com/anrosca/softice/internal/metrics"
	"github.com/anrosca/softice/internal/state"
	"github.com/anrosca/softice/internal/workspace"
)

// BuildOptions are per-invocation switches layered over the config file.
type BuildOptions struct {
	IncludeDrafts bool
	IncludeFuture bool
	StrictLinks   bool
	OutputDir     string // overrides config when non-empty
	ConfigPath    string // fingerprinted together with the content tree
	SkipUnchanged bool   // elide the build when inputs match the last success
}

// Generator orchestrates one site build.
type Generator struct {
	cfg      *config.Config
	opts     BuildOptions
	recorder metrics.Recorder
	store    *state.Store
}

// NewGenerator creates a generator for the given configuration.
func NewGenerator(cfg *config.Config, opts BuildOptions) *Generator {
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Build.OutputDir
	}
	return &Generator{cfg: cfg, opts: opts, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (fluent helper).
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r != nil {
		g.recorder = r
	}
	return g
}

// WithStore attaches the build history store (fluent helper).
func (g *Generator) WithStore(s *state.Store) *Generator { g.store = s; return g }

// Build runs the full pipeline and returns the report. The returned error is
// the first fatal stage error; warnings are only visible in the report.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	buildID := uuid.NewString()[:8]
	report := newBuildReport(buildID)

	fingerprint, err := state.Fingerprint(g.opts.ConfigPath,
		g.cfg.Build.ContentDir, g.cfg.Build.StaticDir, g.cfg.Build.LayoutsDir)
	if err != nil {
		report.finalize(err)
		return report, fmt.Errorf("fingerprint inputs: %w", err)
	}
	report.Fingerprint = fingerprint

	if g.store != nil && g.opts.SkipUnchanged {
		unchanged, err := g.store.UnchangedSince(ctx, fingerprint)
		if err != nil {
			err = fmt.Errorf("check fingerprint: %w", err)
			report.finalize(err)
			return report, err
		}
		if unchanged {
			report.finalizeSkipped()
			g.recorder.IncBuildOutcome(string(OutcomeSkipped))
			slog.Info("Inputs unchanged since last successful build, skipping",
				logfields.BuildID(buildID))
			return report, nil
		}
	}

	slog.Info("Starting site build",
		logfields.BuildID(buildID),
		logfields.Path(g.opts.OutputDir),
		slog.Bool("drafts", g.opts.IncludeDrafts),
		slog.Bool("future", g.opts.IncludeFuture))

	// Staging lives next to the output dir so promotion is a same-filesystem
	// rename.
	staging := workspace.NewStaging(filepath.Dir(filepath.Clean(g.opts.OutputDir)))
	if err := staging.Create(); err != nil {
		report.finalize(err)
		return report, err
	}
	defer func() {
		// A promoted staging is already gone; this only fires on failure.
		if cerr := staging.Cleanup(); cerr != nil {
			slog.Warn("Failed to cleanup staging", logfields.Error(cerr))
		}
	}()

	bs := &BuildState{
		Config:    g.cfg,
		Options:   g.opts,
		Staging:   staging,
		Converter: markdown.NewConverter(),
		Recorder:  g.recorder,
		Report:    report,
	}

	stages := []namedStage{
		{"load", g.stageLoad},
		{"templates", stageTemplates},
		{"render", stageRenderPosts},
		{"lists", stageLists},
		{"taxonomies", stageTaxonomies},
		{"aliases", stageAliases},
		{"feed", stageFeed},
		{"search", stageSearchIndex},
		{"sitemap", stageSitemap},
		{"static", stageStaticCopy},
		{"verify", stageVerify},
		{"promote", g.stagePromote},
	}

	runErr := runStages(ctx, bs, stages)
	report.finalize(runErr)

	g.recorder.ObserveBuildDuration(report.Duration)
	g.recorder.IncBuildOutcome(string(report.Outcome))
	g.recorder.SetPagesRendered(report.Pages)

	g.record(ctx, report)

	if runErr != nil {
		slog.Error("Build failed",
			logfields.BuildID(buildID),
			logfields.Outcome(string(report.Outcome)),
			logfields.Error(runErr))
		return report, runErr
	}

	slog.Info("Build finished",
		logfields.BuildID(buildID),
		logfields.Outcome(string(report.Outcome)),
		logfields.Pages(report.Pages),
		logfields.DurationMS(float64(report.Duration.Milliseconds())),
		slog.Int("warnings", len(report.Warnings)))
	return report, nil
}

// record persists the build outcome; history failures never fail a build.
func (g *Generator) record(ctx context.Context, report *BuildReport) {
	if g.store == nil {
		return
	}
	detail := ""
	if len(report.Errors) > 0 {
		detail = report.Errors[0].Error()
	} else if len(report.Warnings) > 0 {
		detail = report.Warnings[0]
	}
	err := g.store.Record(ctx, state.BuildRecord{
		ID:          report.BuildID,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.StartedAt.Add(report.Duration),
		Outcome:     state.Outcome(report.Outcome),
		Pages:       report.Pages,
		Fingerprint: report.Fingerprint,
		Detail:      detail,
	})
	if err != nil {
		slog.Warn("Failed to record build history", logfields.Error(err))
	}
}

// stageLoad parses the content corpus.
func (g *Generator) stageLoad(ctx context.Context, bs *BuildState) error {
	loader := content.NewLoader(g.cfg.Build.ContentDir, content.Options{
		IncludeDrafts: g.opts.IncludeDrafts || g.cfg.Build.Drafts,
		IncludeFuture: g.opts.IncludeFuture || g.cfg.Build.Future,
	})
	posts, err := loader.Load(ctx)
	if err != nil {
		return newFatalStageError("load", err)
	}
	bs.Posts = posts
	bs.Taxonomies = content.CollectTaxonomies(posts)
	bs.Report.Posts = len(posts)
	return nil
}

// stagePromote swaps the staging tree into the output directory.
func (g *Generator) stagePromote(_ context.Context, bs *BuildState) error {
	if err := bs.Staging.Promote(g.opts.OutputDir); err != nil {
		return newFatalStageError("promote", err)
	}
	return nil
}
