// Package config loads and validates the site configuration (site.toml)
// plus environment-provided secrets.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the singleton site configuration, loaded once per build and
// immutable afterwards.
type Config struct {
	BaseURL         string              `toml:"baseURL"`
	Title           string              `toml:"title"`
	LanguageCode    string              `toml:"languageCode"`
	DefaultLanguage string              `toml:"defaultLanguage"`
	Theme           string              `toml:"theme"`
	Languages       map[string]Language `toml:"languages"`
	Menu            MenuConfig          `toml:"menu"`
	Params          Params              `toml:"params"`
	Build           BuildConfig         `toml:"build"`
	Publish         PublishConfig       `toml:"publish"`
	Daemon          DaemonConfig        `toml:"daemon"`
	Events          EventsConfig        `toml:"events"`
}

// Language holds per-language overrides for a multilingual site.
type Language struct {
	Title  string `toml:"title"`
	Weight int    `toml:"weight"`
}

// MenuConfig groups the navigation menus.
type MenuConfig struct {
	Main []MenuEntry `toml:"main"`
}

// MenuEntry is a single navigation item.
type MenuEntry struct {
	Name   string `toml:"name"`
	URL    string `toml:"url"`
	Weight int    `toml:"weight"`
}

// Params carries theme/rendering parameters surfaced to templates.
type Params struct {
	Description  string            `toml:"description"`
	Author       string            `toml:"author"`
	Paginate     int               `toml:"paginate"`
	RSSLimit     int               `toml:"rssLimit"`
	SearchEngine string            `toml:"searchEngine"`
	Comments     CommentsConfig    `toml:"comments"`
	Social       map[string]string `toml:"social"`
}

// CommentsConfig identifies the third-party comment system, if any.
// Credentials here are public widget IDs, not secrets.
type CommentsConfig struct {
	Provider string `toml:"provider"`
	SiteID   string `toml:"siteId"`
}

// BuildConfig controls input/output locations and build behavior.
type BuildConfig struct {
	ContentDir  string      `toml:"contentDir"`
	StaticDir   string      `toml:"staticDir"`
	LayoutsDir  string      `toml:"layoutsDir"`
	OutputDir   string      `toml:"outputDir"`
	Drafts      bool        `toml:"drafts"`
	Future      bool        `toml:"future"`
	StrictLinks bool        `toml:"strictLinks"`
	Retry       RetryConfig `toml:"retry"`
	StateDB     string      `toml:"stateDb"`
}

// RetryConfig configures publish/rebuild retry behavior.
type RetryConfig struct {
	Backoff    string `toml:"backoff"` // fixed|linear|exponential
	InitialMS  int    `toml:"initialMs"`
	MaxMS      int    `toml:"maxMs"`
	MaxRetries int    `toml:"maxRetries"`
}

// PublishConfig describes the publish branch target.
//
// Credentials are never read from this file; they come from the environment
// (SOFTICE_DEPLOY_TOKEN, SOFTICE_SSH_KEY_PATH).
type PublishConfig struct {
	Remote      string `toml:"remote"`
	Branch      string `toml:"branch"`
	AuthorName  string `toml:"authorName"`
	AuthorEmail string `toml:"authorEmail"`
	CNAME       string `toml:"cname"`
}

// DaemonConfig controls watch/preview mode.
type DaemonConfig struct {
	Listen          string `toml:"listen"`
	RebuildInterval string `toml:"rebuildInterval"` // gocron interval, e.g. "1h"
	DebounceMS      int    `toml:"debounceMs"`
}

// EventsConfig controls optional NATS build event publishing.
type EventsConfig struct {
	Subject string `toml:"subject"`
}

// Load reads, decodes and validates the configuration file. Environment
// files (.env/.env.local) are loaded first so env-driven secrets are
// available to the rest of the process.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		LanguageCode:    "en-us",
		DefaultLanguage: "en",
	}
}

func (c *Config) applyDefaults() {
	if c.Build.ContentDir == "" {
		c.Build.ContentDir = "content"
	}
	if c.Build.StaticDir == "" {
		c.Build.StaticDir = "static"
	}
	if c.Build.LayoutsDir == "" {
		c.Build.LayoutsDir = "layouts"
	}
	if c.Build.OutputDir == "" {
		c.Build.OutputDir = "public"
	}
	if c.Build.StateDB == "" {
		c.Build.StateDB = ".softice/state.db"
	}
	if c.Params.Paginate <= 0 {
		c.Params.Paginate = 10
	}
	if c.Params.RSSLimit <= 0 {
		c.Params.RSSLimit = 20
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = "gh-pages"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = "127.0.0.1:1313"
	}
	if c.Daemon.DebounceMS <= 0 {
		c.Daemon.DebounceMS = 500
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "softice.builds"
	}
}

// Validate checks invariants that would otherwise surface mid-build.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config: baseURL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: baseURL %q is not an absolute URL", c.BaseURL)
	}
	if c.Title == "" {
		return fmt.Errorf("config: title is required")
	}
	if c.Params.Paginate <= 0 {
		return fmt.Errorf("config: params.paginate must be positive")
	}
	switch c.Params.SearchEngine {
	case "", "fuse", "lunr":
	default:
		return fmt.Errorf("config: unsupported search engine %q", c.Params.SearchEngine)
	}
	if c.Daemon.RebuildInterval != "" {
		if _, err := time.ParseDuration(c.Daemon.RebuildInterval); err != nil {
			return fmt.Errorf("config: invalid daemon.rebuildInterval %q: %w", c.Daemon.RebuildInterval, err)
		}
	}
	return nil
}

// DeployToken returns the publish credential from the environment.
func DeployToken() string { return os.Getenv("SOFTICE_DEPLOY_TOKEN") }

// DeployUser returns the username paired with the deploy token. Defaults to
// "git", which is what GitHub expects for token auth.
func DeployUser() string {
	if u := os.Getenv("SOFTICE_DEPLOY_USER"); u != "" {
		return u
	}
	return "git"
}

// SSHKeyPath returns the path of the deploy SSH key, if configured.
func SSHKeyPath() string { return os.Getenv("SOFTICE_SSH_KEY_PATH") }

// NATSURL returns the event broker URL; empty disables event publishing.
func NATSURL() string { return os.Getenv("SOFTICE_NATS_URL") }
