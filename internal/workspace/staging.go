// Package workspace manages the staging directory a build renders into and
// the atomic swap into the final output directory.
//
// Stages never write to the output directory directly: the whole site is
// rendered into a timestamped staging tree and promoted only after every
// stage succeeded, so a failed build never leaves a partial site behind.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/anrosca/softice/internal/logfields"
)

// Staging owns one build's scratch directory.
type Staging struct {
	baseDir string
	dir     string
}

// NewStaging creates a staging manager under baseDir (os.TempDir when empty).
func NewStaging(baseDir string) *Staging {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Staging{baseDir: baseDir}
}

// Create makes a fresh timestamped staging directory.
func (s *Staging) Create() error {
	if err := os.MkdirAll(s.baseDir, 0o750); err != nil {
		return fmt.Errorf("create staging base: %w", err)
	}
	timestamp := time.Now().Format("20060102-150405")
	dir, err := os.MkdirTemp(s.baseDir, fmt.Sprintf("softice-%s-", timestamp))
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	s.dir = dir
	slog.Debug("Created staging directory", logfields.Path(dir))
	return nil
}

// Path returns the staging root. Empty until Create succeeds.
func (s *Staging) Path() string { return s.dir }

// WriteFile writes a rendered artifact at a staging-relative path, creating
// parent directories as needed.
func (s *Staging) WriteFile(rel string, data []byte) error {
	if s.dir == "" {
		return fmt.Errorf("staging not created")
	}
	abs := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// Promote atomically replaces outputDir with the staging tree. The previous
// output is moved aside and removed only after the rename succeeded.
func (s *Staging) Promote(outputDir string) error {
	if s.dir == "" {
		return fmt.Errorf("staging not created")
	}

	if err := os.MkdirAll(filepath.Dir(outputDir), 0o750); err != nil {
		return fmt.Errorf("create output parent: %w", err)
	}

	old := outputDir + ".old"
	_ = os.RemoveAll(old)

	hadPrevious := false
	if _, err := os.Stat(outputDir); err == nil {
		hadPrevious = true
		if err := os.Rename(outputDir, old); err != nil {
			return fmt.Errorf("move previous output aside: %w", err)
		}
	}

	if err := os.Rename(s.dir, outputDir); err != nil {
		if hadPrevious {
			// Restore the previous output; the old site keeps serving.
			_ = os.Rename(old, outputDir)
		}
		return fmt.Errorf("promote staging to %s: %w", outputDir, err)
	}

	if hadPrevious {
		if err := os.RemoveAll(old); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(old), logfields.Error(err))
		}
	}

	slog.Info("Promoted staging to output", logfields.Path(outputDir))
	s.dir = ""
	return nil
}

// Cleanup removes the staging tree of an unpromoted (failed) build.
func (s *Staging) Cleanup() error {
	if s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("cleanup staging: %w", err)
	}
	slog.Debug("Cleaned up staging directory", logfields.Path(s.dir))
	s.dir = ""
	return nil
}
