package frontmatter

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSerializeRoundTrip(t *testing.T) {
	m := Meta{
		Title:      "DynamoDB single-table design",
		Date:       time.Date(2023, 4, 24, 10, 0, 0, 0, time.UTC),
		Draft:      true,
		Author:     "mike",
		Tags:       []string{"aws", "dynamodb"},
		Categories: []string{"databases"},
	}

	block, err := Serialize(m, Style{})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	doc := Join(block, []byte("\nBody.\n"), FormatYAML, Style{})
	gotBlock, body, format, _, err := Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if format != FormatYAML {
		t.Fatalf("expected yaml format, got %q", format)
	}
	if string(body) != "\nBody.\n" {
		t.Fatalf("unexpected body: %q", body)
	}

	got, err := ParseMeta(gotBlock, FormatYAML)
	if err != nil {
		t.Fatalf("parse serialized block: %v", err)
	}
	if got.Title != m.Title {
		t.Fatalf("title mismatch: %q", got.Title)
	}
	if !got.Date.Equal(m.Date) {
		t.Fatalf("date mismatch: %v != %v", got.Date, m.Date)
	}
	if !got.Draft {
		t.Fatalf("draft flag lost")
	}
	if got.Author != m.Author {
		t.Fatalf("author mismatch: %q", got.Author)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "aws" || got.Tags[1] != "dynamodb" {
		t.Fatalf("tags mismatch: %v", got.Tags)
	}
	if len(got.Categories) != 1 || got.Categories[0] != "databases" {
		t.Fatalf("categories mismatch: %v", got.Categories)
	}
}

func TestSerializeScaffoldShape(t *testing.T) {
	m := Meta{
		Title: "An Unwritten Post",
		Date:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Draft: true,
	}

	block, err := Serialize(m, Style{})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	s := string(block)

	if !strings.HasPrefix(s, "title:") {
		t.Fatalf("title should lead the block: %q", s)
	}
	if !strings.Contains(s, "draft: true") {
		t.Fatalf("scaffold must mark the post as draft: %q", s)
	}
	// Empty lists stay in the scaffold for the author to fill in.
	if !strings.Contains(s, "tags: []") || !strings.Contains(s, "categories: []") {
		t.Fatalf("scaffold should carry empty tag/category lists: %q", s)
	}
	// Unset optional fields are omitted entirely.
	for _, absent := range []string{"author", "slug", "description", "aliases", "lastmod"} {
		if strings.Contains(s, absent) {
			t.Fatalf("zero-valued field %q should be omitted: %q", absent, s)
		}
	}
}

func TestSerializeDeterministic(t *testing.T) {
	m := Meta{
		Title: "Kafka metrics",
		Date:  time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		Tags:  []string{"kafka"},
	}

	a, err := Serialize(m, Style{})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	b, err := Serialize(m, Style{})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("serialization not deterministic:\n%q\n%q", a, b)
	}
}

func TestSerializeHonorsNewlineStyle(t *testing.T) {
	m := Meta{Title: "t", Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}

	block, err := Serialize(m, Style{Newline: "\r\n"})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Contains(block, []byte("\r\n")) {
		t.Fatalf("CRLF style not applied: %q", block)
	}
	if bytes.Contains(bytes.ReplaceAll(block, []byte("\r\n"), nil), []byte("\n")) {
		t.Fatalf("stray LF in CRLF output: %q", block)
	}
}
