package site

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/anrosca/softice/internal/content"
)

// SearchDoc is one entry of the client-side search index (/index.json).
type SearchDoc struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Date       string   `json:"date"`
}

// renderSearchIndex produces the JSON document consumed by the client-side
// search widget. Deterministic: posts arrive pre-sorted from the loader.
func renderSearchIndex(posts []*content.Post) ([]byte, error) {
	docs := make([]SearchDoc, 0, len(posts))
	for _, p := range posts {
		docs = append(docs, SearchDoc{
			Title:      p.Meta.Title,
			URL:        p.Permalink,
			Summary:    p.Summary,
			Tags:       p.Meta.Tags,
			Categories: p.Meta.Categories,
			Date:       p.Meta.Date.Format("2006-01-02"),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return nil, fmt.Errorf("encode search index: %w", err)
	}
	return buf.Bytes(), nil
}
