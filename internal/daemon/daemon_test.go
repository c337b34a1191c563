package daemon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigReloadPinsWiredPaths(t *testing.T) {
	d := testDaemon(t)
	d.cfg.Build.ContentDir = "content"
	d.cfg.Build.OutputDir = "public"

	next := *d.cfg
	next.Title = "renamed blog"
	next.Build.ContentDir = "elsewhere/content"
	next.Build.OutputDir = "elsewhere/public"
	next.Daemon.Listen = "127.0.0.1:9999"
	d.adoptConfig(&next)

	// Regular settings flow through on reload.
	require.Equal(t, "renamed blog", d.cfg.Title)
	// Watched roots, output dir and listen address keep startup values.
	require.Equal(t, "content", d.cfg.Build.ContentDir)
	require.Equal(t, "public", d.cfg.Build.OutputDir)
	require.Equal(t, "127.0.0.1:0", d.cfg.Daemon.Listen)
}
