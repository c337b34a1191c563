// Package publish pushes a built site to the publish branch of a git remote.
//
// The publish branch holds only build output; history on it is append-only
// and every commit corresponds to one build. Publishing an identical tree is
// a no-op: no empty commits, no push.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/anrosca/softice/internal/config"
	"github.com/anrosca/softice/internal/events"
	"github.com/anrosca/softice/internal/logfields"
	"github.com/anrosca/softice/internal/metrics"
	"github.com/anrosca/softice/internal/retry"
)

const defaultAuthorName = "softice"

// Options are per-invocation publish switches.
type Options struct {
	DryRun bool // prepare and commit locally, never push
}

// Result describes what one publish did.
type Result struct {
	Remote    string
	Branch    string
	Commit    string // empty when nothing changed
	NoChanges bool
	Pushed    bool
	Duration  time.Duration
}

// Publisher pushes site trees to the configured publish branch.
type Publisher struct {
	cfg      config.PublishConfig
	policy   retry.Policy
	recorder metrics.Recorder
	events   *events.Publisher
}

// NewPublisher creates a publisher for the given publish target.
func NewPublisher(cfg config.PublishConfig, policy retry.Policy) *Publisher {
	return &Publisher{cfg: cfg, policy: policy, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (fluent helper).
func (p *Publisher) WithRecorder(r metrics.Recorder) *Publisher {
	if r != nil {
		p.recorder = r
	}
	return p
}

// WithEvents attaches the lifecycle event publisher (fluent helper).
func (p *Publisher) WithEvents(ev *events.Publisher) *Publisher { p.events = ev; return p }

// Publish commits the site tree onto the publish branch and pushes it.
// The push is retried per the policy for transient transport failures.
func (p *Publisher) Publish(ctx context.Context, siteDir, buildID string, opts Options) (*Result, error) {
	started := time.Now()
	result, err := p.publish(ctx, siteDir, buildID, opts)
	duration := time.Since(started)

	label := "success"
	switch {
	case err != nil:
		label = "failed"
	case result.NoChanges:
		label = "noop"
	}
	p.recorder.ObservePublishDuration(duration, label)
	p.recorder.IncPublishResult(label)

	if err != nil {
		return nil, err
	}
	if !result.NoChanges {
		p.events.Publish(events.TypeSitePublished, buildID, map[string]string{
			"branch": result.Branch,
			"commit": result.Commit,
		})
	}
	result.Duration = duration
	return result, nil
}

func (p *Publisher) publish(ctx context.Context, siteDir, buildID string, opts Options) (*Result, error) {
	if p.cfg.Remote == "" {
		return nil, fmt.Errorf("publish: no remote configured")
	}
	if _, err := os.Stat(siteDir); err != nil {
		return nil, fmt.Errorf("publish: site dir %s: %w", siteDir, err)
	}

	result := &Result{Remote: p.cfg.Remote, Branch: p.cfg.Branch}

	auth, err := p.authMethod()
	if err != nil {
		return nil, err
	}

	workdir, err := os.MkdirTemp("", "softice-publish-")
	if err != nil {
		return nil, fmt.Errorf("publish: create workdir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(workdir); rerr != nil {
			slog.Warn("Failed to remove publish workdir", logfields.Error(rerr))
		}
	}()

	repo, err := p.prepareWorktree(ctx, workdir, auth)
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("publish: worktree: %w", err)
	}

	if err := replaceTree(workdir, siteDir); err != nil {
		return nil, err
	}
	if p.cfg.CNAME != "" {
		if err := os.WriteFile(filepath.Join(workdir, "CNAME"), []byte(p.cfg.CNAME+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("publish: write CNAME: %w", err)
		}
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("publish: stage tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("publish: status: %w", err)
	}
	if status.IsClean() {
		slog.Info("Publish branch already up to date",
			logfields.Branch(p.cfg.Branch),
			logfields.BuildID(buildID))
		result.NoChanges = true
		return result, nil
	}

	commit, err := wt.Commit(fmt.Sprintf("Publish site build %s", buildID), &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.authorName(),
			Email: p.authorEmail(),
			When:  time.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("publish: commit: %w", err)
	}
	result.Commit = commit.String()

	if opts.DryRun {
		slog.Info("Dry run, skipping push",
			logfields.Branch(p.cfg.Branch),
			slog.String("commit", commit.String()[:8]))
		return result, nil
	}

	refSpec := gitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", p.cfg.Branch, p.cfg.Branch))
	err = p.policy.Do(ctx, func() error {
		err := repo.PushContext(ctx, &git.PushOptions{
			RemoteName: "origin",
			RefSpecs:   []gitcfg.RefSpec{refSpec},
			Auth:       auth,
		})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return classifyError("push", p.cfg.Remote, p.cfg.Branch, err)
	}, isRetryable)
	if err != nil {
		return nil, err
	}
	result.Pushed = true

	slog.Info("Site published",
		logfields.Remote(p.cfg.Remote),
		logfields.Branch(p.cfg.Branch),
		slog.String("commit", commit.String()[:8]),
		logfields.BuildID(buildID))
	return result, nil
}

// prepareWorktree checks out the publish branch into workdir. A missing
// branch or an empty remote yields a fresh repository whose first commit
// creates the branch.
func (p *Publisher) prepareWorktree(ctx context.Context, workdir string, auth transport.AuthMethod) (*git.Repository, error) {
	branchRef := plumbing.NewBranchReferenceName(p.cfg.Branch)

	repo, err := git.PlainCloneContext(ctx, workdir, false, &git.CloneOptions{
		URL:           p.cfg.Remote,
		ReferenceName: branchRef,
		SingleBranch:  true,
		Auth:          auth,
	})
	if err == nil {
		return repo, nil
	}
	if !branchAbsent(err) {
		return nil, classifyError("clone", p.cfg.Remote, p.cfg.Branch, err)
	}

	slog.Info("Publish branch does not exist yet, starting fresh",
		logfields.Remote(p.cfg.Remote),
		logfields.Branch(p.cfg.Branch))

	repo, err = git.PlainInitWithOptions(workdir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: branchRef},
	})
	if err != nil {
		return nil, fmt.Errorf("publish: init workdir: %w", err)
	}
	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{
		Name: "origin",
		URLs: []string{p.cfg.Remote},
	})
	if err != nil {
		return nil, fmt.Errorf("publish: add remote: %w", err)
	}
	return repo, nil
}

// branchAbsent reports whether a clone failure means "nothing to build on":
// an empty remote or a remote without the publish branch.
func branchAbsent(err error) bool {
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return true
	}
	l := strings.ToLower(err.Error())
	return strings.Contains(l, "reference not found") ||
		strings.Contains(l, "couldn't find remote ref")
}

// replaceTree makes workdir mirror siteDir, keeping only the .git directory.
func replaceTree(workdir, siteDir string) error {
	entries, err := os.ReadDir(workdir)
	if err != nil {
		return fmt.Errorf("publish: read workdir: %w", err)
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(workdir, e.Name())); err != nil {
			return fmt.Errorf("publish: clear workdir: %w", err)
		}
	}

	return filepath.WalkDir(siteDir, func(src string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(siteDir, src)
		if err != nil {
			return err
		}
		dst := filepath.Join(workdir, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
}

// authMethod resolves credentials from the environment against the remote's
// transport. File and anonymous remotes get none.
func (p *Publisher) authMethod() (transport.AuthMethod, error) {
	remote := p.cfg.Remote
	switch {
	case strings.HasPrefix(remote, "http://") || strings.HasPrefix(remote, "https://"):
		if token := config.DeployToken(); token != "" {
			return &githttp.BasicAuth{Username: config.DeployUser(), Password: token}, nil
		}
		return nil, nil
	case strings.HasPrefix(remote, "ssh://") || strings.Contains(remote, "@"):
		if keyPath := config.SSHKeyPath(); keyPath != "" {
			keys, err := gitssh.NewPublicKeysFromFile("git", keyPath, "")
			if err != nil {
				return nil, fmt.Errorf("publish: load SSH key %s: %w", keyPath, err)
			}
			return keys, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func (p *Publisher) authorName() string {
	if p.cfg.AuthorName != "" {
		return p.cfg.AuthorName
	}
	return defaultAuthorName
}

func (p *Publisher) authorEmail() string {
	if p.cfg.AuthorEmail != "" {
		return p.cfg.AuthorEmail
	}
	return defaultAuthorName + "@localhost"
}
