package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(outcome Outcome, fingerprint string, started time.Time) BuildRecord {
	return BuildRecord{
		ID:          uuid.NewString(),
		StartedAt:   started,
		FinishedAt:  started.Add(2 * time.Second),
		Outcome:     outcome,
		Pages:       12,
		Fingerprint: fingerprint,
	}
}

func TestRecordAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, outcome := range []Outcome{OutcomeSuccess, OutcomeFailed, OutcomeSuccess} {
		if err := s.Record(ctx, record(outcome, "fp", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	history, err := s.History(ctx, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 records, got %d", len(history))
	}
	// Newest first.
	if !history[0].StartedAt.After(history[2].StartedAt) {
		t.Fatalf("history not sorted newest first: %v", history)
	}
	if history[0].Pages != 12 {
		t.Fatalf("pages not persisted: %+v", history[0])
	}
}

func TestLastSuccessfulSkipsFailures(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := s.Record(ctx, record(OutcomeSuccess, "old", base)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, record(OutcomeFailed, "broken", base.Add(time.Minute))); err != nil {
		t.Fatalf("record: %v", err)
	}

	last, ok, err := s.LastSuccessful(ctx)
	if err != nil {
		t.Fatalf("last successful: %v", err)
	}
	if !ok {
		t.Fatalf("expected a successful build")
	}
	if last.Fingerprint != "old" {
		t.Fatalf("expected the successful build, got %+v", last)
	}
}

func TestLastSuccessfulEmpty(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.LastSuccessful(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no builds")
	}
}

func TestUnchangedSince(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	unchanged, err := s.UnchangedSince(ctx, "fp-1")
	if err != nil || unchanged {
		t.Fatalf("empty history must not report unchanged: %v %v", unchanged, err)
	}

	if err := s.Record(ctx, record(OutcomeSuccess, "fp-1", time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}

	unchanged, err = s.UnchangedSince(ctx, "fp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !unchanged {
		t.Fatalf("expected unchanged fingerprint match")
	}

	unchanged, err = s.UnchangedSince(ctx, "fp-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unchanged {
		t.Fatalf("different fingerprint must not match")
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	if err := os.MkdirAll(filepath.Join(content, "posts"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	postPath := filepath.Join(content, "posts", "a.md")
	if err := os.WriteFile(postPath, []byte("---\ntitle: t\ndate: 2023-04-24\n---\nbody\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfgPath := filepath.Join(dir, "site.toml")
	if err := os.WriteFile(cfgPath, []byte("baseURL = \"https://x\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fp1, err := Fingerprint(cfgPath, content)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	fp2, err := Fingerprint(cfgPath, content)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fp1 != fp2 {
		t.Fatalf("fingerprint not deterministic: %s vs %s", fp1, fp2)
	}

	// Content change must change the digest.
	if err := os.WriteFile(postPath, []byte("---\ntitle: t\ndate: 2023-04-24\n---\nedited\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fp3, err := Fingerprint(cfgPath, content)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fp3 == fp1 {
		t.Fatalf("fingerprint did not change with content")
	}

	// Missing roots contribute nothing instead of failing.
	if _, err := Fingerprint(cfgPath, content, filepath.Join(dir, "static")); err != nil {
		t.Fatalf("missing root should be tolerated: %v", err)
	}
}

func TestFingerprintStableAcrossTreeLocations(t *testing.T) {
	writeTree := func(t *testing.T) (cfgPath, content string) {
		t.Helper()
		dir := t.TempDir()
		content = filepath.Join(dir, "content")
		if err := os.MkdirAll(filepath.Join(content, "posts"), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		post := []byte("---\ntitle: t\ndate: 2023-04-24\n---\nbody\n")
		if err := os.WriteFile(filepath.Join(content, "posts", "a.md"), post, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		cfgPath = filepath.Join(dir, "site.toml")
		if err := os.WriteFile(cfgPath, []byte("baseURL = \"https://x\"\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		return cfgPath, content
	}

	cfgA, contentA := writeTree(t)
	cfgB, contentB := writeTree(t)

	fpA, err := Fingerprint(cfgA, contentA)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	fpB, err := Fingerprint(cfgB, contentB)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fpA != fpB {
		t.Fatalf("relocating an unchanged tree changed the fingerprint: %s vs %s", fpA, fpB)
	}
}
