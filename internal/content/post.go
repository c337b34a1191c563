// Package content loads the Markdown corpus into Post records.
package content

import (
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/anrosca/softice/internal/frontmatter"
)

// Post is one content document. Identity is the content-relative file path.
type Post struct {
	// Path is the content-relative source path, e.g. "posts/dynamodb.md".
	Path string
	Meta frontmatter.Meta

	// Derived fields.
	Section     string // first path element, "" for top-level pages
	Slug        string
	Permalink   string // site-relative, always with trailing slash
	Summary     string
	WordCount   int
	ReadingTime int // minutes, words/200 rounded up

	// Body is the raw Markdown body; HTML is filled in by the renderer.
	Body []byte
	HTML []byte
}

// wordsPerMinute is the conventional reading speed for technical prose.
const wordsPerMinute = 200

// summaryWordLimit bounds the auto-generated summary length.
const summaryWordLimit = 50

func newPost(relPath string, meta frontmatter.Meta, body []byte) *Post {
	p := &Post{
		Path: filepathToSlash(relPath),
		Meta: meta,
		Body: body,
	}

	if i := strings.IndexByte(p.Path, '/'); i > 0 {
		p.Section = p.Path[:i]
	}

	p.Slug = meta.Slug
	if p.Slug == "" {
		p.Slug = Slugify(meta.Title)
	}

	p.Permalink = permalink(p.Section, p.Slug)
	p.WordCount = countWords(body)
	p.ReadingTime = (p.WordCount + wordsPerMinute - 1) / wordsPerMinute
	p.Summary = meta.Description
	if p.Summary == "" {
		p.Summary = summarize(body)
	}
	return p
}

func filepathToSlash(p string) string { return strings.ReplaceAll(p, "\\", "/") }

func permalink(section, slug string) string {
	if section == "" {
		return "/" + slug + "/"
	}
	return "/" + path.Join(section, slug) + "/"
}

// Draft reports whether the post is excluded from a default build.
func (p *Post) Draft() bool { return p.Meta.Draft }

// Future reports whether the post is dated after now.
func (p *Post) Future(now time.Time) bool { return p.Meta.Date.After(now) }

// OutputPath is the staging-relative path of the rendered page.
func (p *Post) OutputPath() string {
	return strings.TrimPrefix(p.Permalink, "/") + "index.html"
}

func countWords(body []byte) int {
	return len(strings.Fields(string(body)))
}

// summarize takes the leading words of the body, stripping the most common
// Markdown punctuation. Good enough for feed/search snippets.
func summarize(body []byte) string {
	words := strings.Fields(string(body))
	if len(words) > summaryWordLimit {
		words = words[:summaryWordLimit]
	}
	s := strings.Join(words, " ")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '`', '>', '_':
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	if r := []rune(s); len(r) > 0 && !unicode.IsPunct(r[len(r)-1]) {
		s += "…"
	}
	return s
}
