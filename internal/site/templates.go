package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anrosca/softice/internal/content"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

// TemplateSet holds the compiled page templates. Each page kind is the
// builtin base layout plus one "main" block; files in the layouts directory
// override the builtins by name.
type TemplateSet struct {
	single *template.Template
	list   *template.Template
	terms  *template.Template
}

var templateFuncs = template.FuncMap{
	"dateFormat": func(layout string, t time.Time) string { return t.Format(layout) },
	"safeHTML":   func(b []byte) template.HTML { return template.HTML(b) },
	"slugify":    content.Slugify,
	"lower":      strings.ToLower,
}

// LoadTemplates compiles the template set, preferring files from layoutsDir
// over the embedded defaults. A missing layouts directory is fine; a broken
// override is a template error that fails the build.
func LoadTemplates(layoutsDir string) (*TemplateSet, error) {
	ts := &TemplateSet{}
	var err error
	if ts.single, err = compilePage(layoutsDir, "single.html"); err != nil {
		return nil, err
	}
	if ts.list, err = compilePage(layoutsDir, "list.html"); err != nil {
		return nil, err
	}
	if ts.terms, err = compilePage(layoutsDir, "terms.html"); err != nil {
		return nil, err
	}
	return ts, nil
}

func compilePage(layoutsDir, page string) (*template.Template, error) {
	base, err := templateSource(layoutsDir, "baseof.html")
	if err != nil {
		return nil, err
	}
	main, err := templateSource(layoutsDir, page)
	if err != nil {
		return nil, err
	}

	t := template.New(page).Funcs(templateFuncs)
	if t, err = t.Parse(string(base)); err != nil {
		return nil, fmt.Errorf("parse baseof.html: %w", err)
	}
	if t, err = t.Parse(string(main)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}
	return t, nil
}

// templateSource reads a template file from layoutsDir when present,
// otherwise from the embedded defaults.
func templateSource(layoutsDir, name string) ([]byte, error) {
	if layoutsDir != "" {
		override := filepath.Join(layoutsDir, name)
		if data, err := os.ReadFile(override); err == nil {
			return data, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read template override %s: %w", override, err)
		}
	}
	data, err := builtinTemplates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("read builtin template %s: %w", name, err)
	}
	return data, nil
}

// ExecuteSingle renders one post page.
func (ts *TemplateSet) ExecuteSingle(w io.Writer, data *PageData) error {
	return ts.single.ExecuteTemplate(w, "baseof", data)
}

// ExecuteList renders a paginated post list.
func (ts *TemplateSet) ExecuteList(w io.Writer, data *PageData) error {
	return ts.list.ExecuteTemplate(w, "baseof", data)
}

// ExecuteTerms renders a taxonomy terms overview.
func (ts *TemplateSet) ExecuteTerms(w io.Writer, data *PageData) error {
	return ts.terms.ExecuteTemplate(w, "baseof", data)
}
