package frontmatter

import (
	"fmt"
	"time"
)

// Meta is the typed view of a post's front matter.
//
// Title and Date are the only required fields; everything else defaults to a
// zero value. Tags and categories keep their authored order.
type Meta struct {
	Title       string
	Date        time.Time
	Lastmod     time.Time
	Draft       bool
	Author      string
	Slug        string
	Description string
	Tags        []string
	Categories  []string
	Aliases     []string
}

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseMeta decodes a raw front matter block into a typed Meta.
//
// A missing or empty title and an invalid date are reported as errors; the
// caller decides whether they fail the whole build.
func ParseMeta(block []byte, format Format) (Meta, error) {
	fields, err := Decode(block, format)
	if err != nil {
		return Meta{}, fmt.Errorf("decode front matter: %w", err)
	}
	return metaFromFields(fields)
}

func metaFromFields(fields map[string]any) (Meta, error) {
	var m Meta
	var err error

	m.Title = stringField(fields, "title")
	if m.Title == "" {
		return m, fmt.Errorf("front matter is missing a non-empty title")
	}

	if m.Date, err = dateField(fields, "date"); err != nil {
		return m, err
	}
	if m.Date.IsZero() {
		return m, fmt.Errorf("front matter is missing a date")
	}
	if m.Lastmod, err = dateField(fields, "lastmod"); err != nil {
		return m, err
	}

	m.Draft = boolField(fields, "draft")
	m.Author = stringField(fields, "author")
	m.Slug = stringField(fields, "slug")
	m.Description = stringField(fields, "description")
	m.Tags = stringListField(fields, "tags")
	m.Categories = stringListField(fields, "categories")
	m.Aliases = stringListField(fields, "aliases")

	return m, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func boolField(fields map[string]any, key string) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return false
}

func stringListField(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func dateField(fields map[string]any, key string) (time.Time, error) {
	switch v := fields[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		// yaml.v3 and BurntSushi/toml both decode native date values.
		return v, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid %s %q in front matter", key, v)
	default:
		return time.Time{}, fmt.Errorf("invalid %s value of type %T in front matter", key, v)
	}
}
