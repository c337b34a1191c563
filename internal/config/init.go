package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Init writes a starter configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		BaseURL:         "https://example.com",
		Title:           "My Blog",
		LanguageCode:    "en-us",
		DefaultLanguage: "en",
		Theme:           "plain",
		Languages: map[string]Language{
			"en": {Title: "My Blog", Weight: 1},
		},
		Menu: MenuConfig{
			Main: []MenuEntry{
				{Name: "Posts", URL: "/posts/", Weight: 1},
				{Name: "Tags", URL: "/tags/", Weight: 2},
				{Name: "About", URL: "/about/", Weight: 3},
			},
		},
		Params: Params{
			Description:  "Long-form technical posts",
			Author:       "author",
			Paginate:     10,
			RSSLimit:     20,
			SearchEngine: "fuse",
		},
		Build: BuildConfig{
			ContentDir: "content",
			StaticDir:  "static",
			LayoutsDir: "layouts",
			OutputDir:  "public",
			Retry:      RetryConfig{Backoff: "linear", InitialMS: 1000, MaxMS: 30000, MaxRetries: 2},
		},
		Publish: PublishConfig{
			Remote:      "git@github.com:example/example.github.io.git",
			Branch:      "gh-pages",
			AuthorName:  "ci-bot",
			AuthorEmail: "ci@example.com",
		},
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(example); err != nil {
		return fmt.Errorf("encode starter config: %w", err)
	}
	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}
	return nil
}
