package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/anrosca/softice/internal/frontmatter"
	"github.com/anrosca/softice/internal/logfields"
)

// Options controls which posts a load pass admits.
type Options struct {
	// IncludeDrafts admits posts with draft: true.
	IncludeDrafts bool
	// IncludeFuture admits posts dated after Now.
	IncludeFuture bool
	// Now anchors future-post filtering; zero means time.Now().
	Now time.Time
}

// Loader walks a content directory and parses every Markdown file.
type Loader struct {
	contentDir string
	opts       Options
}

// NewLoader creates a loader rooted at contentDir.
func NewLoader(contentDir string, opts Options) *Loader {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &Loader{contentDir: contentDir, opts: opts}
}

// Load parses the whole corpus. The first malformed file fails the load;
// a static pipeline has no meaningful partial recovery.
//
// Returned posts are sorted by date descending, path ascending as tiebreaker,
// so downstream rendering is deterministic.
func (l *Loader) Load(ctx context.Context) ([]*Post, error) {
	var posts []*Post
	var skippedDrafts, skippedFuture int

	err := filepath.WalkDir(l.contentDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != l.contentDir {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, err := filepath.Rel(l.contentDir, p)
		if err != nil {
			return err
		}

		post, err := l.loadFile(p, rel)
		if err != nil {
			return err
		}

		switch {
		case post.Draft() && !l.opts.IncludeDrafts:
			skippedDrafts++
			slog.Debug("Skipping draft post", logfields.Post(post.Path))
		case post.Future(l.opts.Now) && !l.opts.IncludeFuture:
			skippedFuture++
			slog.Debug("Skipping future-dated post", logfields.Post(post.Path))
		default:
			posts = append(posts, post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Meta.Date.Equal(posts[j].Meta.Date) {
			return posts[i].Meta.Date.After(posts[j].Meta.Date)
		}
		return posts[i].Path < posts[j].Path
	})

	slog.Info("Content corpus loaded",
		logfields.Path(l.contentDir),
		slog.Int("posts", len(posts)),
		slog.Int("skipped_drafts", skippedDrafts),
		slog.Int("skipped_future", skippedFuture))
	return posts, nil
}

func (l *Loader) loadFile(absPath, relPath string) (*Post, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}

	block, body, format, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relPath, err)
	}
	if format == frontmatter.FormatNone {
		return nil, fmt.Errorf("%s: missing front matter block", relPath)
	}

	meta, err := frontmatter.ParseMeta(block, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relPath, err)
	}

	return newPost(relPath, meta, body), nil
}
