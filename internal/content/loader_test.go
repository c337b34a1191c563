package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePost(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

const publishedPost = `---
title: DynamoDB single-table design
date: 2023-04-24
author: mike
tags:
  - aws
  - dynamodb
categories:
  - databases
---

Single-table design packs every entity into one table.
`

const draftPost = `---
title: Unfinished thoughts
date: 2023-05-01
draft: true
---

Not ready yet.
`

func TestLoadSortsAndDerives(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "posts/dynamodb-single-table.md", publishedPost)
	writePost(t, dir, "posts/older.md", "---\ntitle: Older post\ndate: 2022-01-01\n---\nOld body.\n")
	writePost(t, dir, "about.md", "---\ntitle: About\ndate: 2022-06-01\n---\nAbout me.\n")

	posts, err := NewLoader(dir, Options{}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	// Date descending.
	if posts[0].Path != "posts/dynamodb-single-table.md" {
		t.Fatalf("unexpected order: %s first", posts[0].Path)
	}
	if posts[2].Path != "posts/older.md" {
		t.Fatalf("unexpected order: %s last", posts[2].Path)
	}

	p := posts[0]
	if p.Section != "posts" {
		t.Fatalf("unexpected section: %q", p.Section)
	}
	if p.Slug != "dynamodb-single-table-design" {
		t.Fatalf("unexpected slug: %q", p.Slug)
	}
	if p.Permalink != "/posts/dynamodb-single-table-design/" {
		t.Fatalf("unexpected permalink: %q", p.Permalink)
	}
	if p.OutputPath() != "posts/dynamodb-single-table-design/index.html" {
		t.Fatalf("unexpected output path: %q", p.OutputPath())
	}
	if p.WordCount == 0 || p.ReadingTime == 0 {
		t.Fatalf("word count/reading time not derived: %d/%d", p.WordCount, p.ReadingTime)
	}

	about := posts[1]
	if about.Section != "" || about.Permalink != "/about/" {
		t.Fatalf("top-level page misderived: %q %q", about.Section, about.Permalink)
	}
}

func TestLoadExcludesDraftsByDefault(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "posts/live.md", publishedPost)
	writePost(t, dir, "posts/draft.md", draftPost)

	posts, err := NewLoader(dir, Options{}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected draft exclusion, got %d posts", len(posts))
	}

	posts, err = NewLoader(dir, Options{IncludeDrafts: true}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected drafts included, got %d posts", len(posts))
	}
}

func TestLoadExcludesFuturePosts(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "posts/live.md", publishedPost)
	writePost(t, dir, "posts/future.md", "---\ntitle: Scheduled\ndate: 2099-01-01\n---\nLater.\n")

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts, err := NewLoader(dir, Options{Now: now}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected future exclusion, got %d posts", len(posts))
	}

	posts, err = NewLoader(dir, Options{Now: now, IncludeFuture: true}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected future included, got %d posts", len(posts))
	}
}

func TestLoadFailsOnMalformedFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "posts/broken.md", "---\ntitle: Broken\ndate: 2023-04-24\nNo closing fence.\n")

	if _, err := NewLoader(dir, Options{}).Load(context.Background()); err == nil {
		t.Fatalf("expected unterminated front matter to fail the load")
	}
}

func TestLoadFailsOnMissingFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "posts/plain.md", "# No metadata\n")

	if _, err := NewLoader(dir, Options{}).Load(context.Background()); err == nil {
		t.Fatalf("expected missing front matter to fail the load")
	}
}

func TestLoadHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "posts/live.md", publishedPost)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLoader(dir, Options{}).Load(ctx); err == nil {
		t.Fatalf("expected canceled context to abort the load")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"DynamoDB single-table design", "dynamodb-single-table-design"},
		{"Spring Boot: @Transactional explained", "spring-boot-transactional-explained"},
		{"Čüriöus títle", "curious-title"},
		{"  spaced   out  ", "spaced-out"},
		{"100% Kafka", "100-kafka"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollectTaxonomies(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "posts/a.md", publishedPost)
	writePost(t, dir, "posts/b.md", "---\ntitle: Kafka metrics\ndate: 2023-01-15\ntags: [kafka, aws]\ncategories: [messaging]\n---\nBody.\n")

	posts, err := NewLoader(dir, Options{}).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx := CollectTaxonomies(posts)
	if got := tx.Tags.Terms(); len(got) != 3 || got[0] != "aws" || got[1] != "dynamodb" || got[2] != "kafka" {
		t.Fatalf("unexpected tag terms: %v", got)
	}
	if len(tx.Tags["aws"]) != 2 {
		t.Fatalf("expected 2 posts under aws, got %d", len(tx.Tags["aws"]))
	}
	if len(tx.Categories["databases"]) != 1 || len(tx.Categories["messaging"]) != 1 {
		t.Fatalf("unexpected categories: %v", tx.Categories.Terms())
	}
}
