package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "site.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
baseURL = "https://softice.dev"
title = "softice.dev"
theme = "plain"

[params]
paginate = 5

[[menu.main]]
name = "Posts"
url = "/posts/"
weight = 1
`

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://softice.dev" {
		t.Fatalf("unexpected baseURL: %q", cfg.BaseURL)
	}
	if cfg.Params.Paginate != 5 {
		t.Fatalf("unexpected paginate: %d", cfg.Params.Paginate)
	}
	if len(cfg.Menu.Main) != 1 || cfg.Menu.Main[0].Name != "Posts" {
		t.Fatalf("unexpected menu: %+v", cfg.Menu.Main)
	}
	// Defaults applied.
	if cfg.Build.ContentDir != "content" || cfg.Build.OutputDir != "public" {
		t.Fatalf("defaults not applied: %+v", cfg.Build)
	}
	if cfg.Publish.Branch != "gh-pages" {
		t.Fatalf("default publish branch not applied: %q", cfg.Publish.Branch)
	}
	if cfg.Params.RSSLimit != 20 {
		t.Fatalf("default rss limit not applied: %d", cfg.Params.RSSLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing config")
	}
}

func TestLoadRejectsRelativeBaseURL(t *testing.T) {
	body := strings.Replace(minimalConfig, `baseURL = "https://softice.dev"`, `baseURL = "/blog"`, 1)
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for relative baseURL")
	}
}

func TestLoadRejectsMissingTitle(t *testing.T) {
	body := strings.Replace(minimalConfig, `title = "softice.dev"`, "", 1)
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for missing title")
	}
}

func TestLoadRejectsUnknownSearchEngine(t *testing.T) {
	body := minimalConfig + "\n[params.comments]\nprovider = \"disqus\"\n"
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("comments config should be accepted: %v", err)
	}
	if cfg.Params.Comments.Provider != "disqus" {
		t.Fatalf("comments provider not decoded: %+v", cfg.Params.Comments)
	}

	bad := strings.Replace(minimalConfig, "[params]", "[params]\nsearchEngine = \"sphinx\"", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("expected error for unsupported search engine")
	}
}

func TestLoadRejectsBadRebuildInterval(t *testing.T) {
	body := minimalConfig + "\n[daemon]\nrebuildInterval = \"often\"\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for invalid rebuild interval")
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	if err := Init(path, false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("scaffolded config should load: %v", err)
	}
}
