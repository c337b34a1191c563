package frontmatter

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"
)

// Serialize renders a Meta into a YAML front matter block (without
// delimiters) for scaffolded posts. Field order is fixed and zero-valued
// optional fields are omitted, so the same Meta always yields the same
// bytes. Tags and categories are emitted even when empty: a scaffold wants
// the lists there for the author to fill in.
func Serialize(m Meta, style Style) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	appendScalar(root, "title", m.Title)
	appendScalar(root, "date", m.Date.Format(time.RFC3339))
	if !m.Lastmod.IsZero() {
		appendScalar(root, "lastmod", m.Lastmod.Format(time.RFC3339))
	}
	appendBool(root, "draft", m.Draft)
	if m.Author != "" {
		appendScalar(root, "author", m.Author)
	}
	if m.Slug != "" {
		appendScalar(root, "slug", m.Slug)
	}
	if m.Description != "" {
		appendScalar(root, "description", m.Description)
	}
	appendList(root, "tags", m.Tags)
	appendList(root, "categories", m.Categories)
	if len(m.Aliases) > 0 {
		appendList(root, "aliases", m.Aliases)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if nl := style.Newline; nl != "" && nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

func appendScalar(root *yaml.Node, key, value string) {
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

func appendBool(root *yaml.Node, key string, value bool) {
	v := "false"
	if value {
		v = "true"
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v})
}

func appendList(root *yaml.Node, key string, items []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, item := range items {
		seq.Content = append(seq.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		seq)
}
