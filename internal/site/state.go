package site

import (
	"github.com/anrosca/softice/internal/config"
	"github.com/anrosca/softice/internal/content"
	"github.com/anrosca/softice/internal/markdown"
	"github.com/anrosca/softice/internal/metrics"
	"github.com/anrosca/softice/internal/workspace"
)

// BuildState carries mutable state across stages of one build.
type BuildState struct {
	Config     *config.Config
	Options    BuildOptions
	Posts      []*content.Post
	Taxonomies content.Taxonomies
	Staging    *workspace.Staging
	Templates  *TemplateSet
	Converter  *markdown.Converter
	Recorder   metrics.Recorder
	Report     *BuildReport
}

// countPage bumps the rendered page total.
func (bs *BuildState) countPage() { bs.Report.Pages++ }
