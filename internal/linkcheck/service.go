package linkcheck

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Violation is one internal reference that does not resolve to a file.
type Violation struct {
	Page string // site-relative page the link appears on
	URL  string // the broken destination
	Tag  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: broken internal %s reference %q", v.Page, v.Tag, v.URL)
}

// VerifyDir walks every .html file under root and checks that each internal
// link resolves inside the tree. External links are never dialed.
func VerifyDir(root, baseURL string) ([]Violation, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	var violations []Violation
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		links, err := ExtractLinks(p, baseURL)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page := "/" + filepath.ToSlash(rel)

		for _, l := range links {
			if !l.IsInternal {
				continue
			}
			if resolves(root, page, l.URL, base) {
				continue
			}
			violations = append(violations, Violation{Page: page, URL: l.URL, Tag: l.Tag})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return violations, nil
}

// resolves reports whether an internal destination maps to an existing file.
// A directory-style URL resolves through its index.html.
func resolves(root, page, raw string, base *url.URL) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	target := u.Path
	if u.Host != "" {
		// Absolute URL on our own host; keep only the path.
		target = u.Path
	}
	if target == "" { // pure fragment/query
		return true
	}

	if !strings.HasPrefix(target, "/") {
		// Relative to the page's directory.
		target = filepath.ToSlash(filepath.Join(filepath.Dir(page), target))
	}

	clean := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(target, "/")))
	if !strings.HasPrefix(clean, filepath.Clean(root)) {
		return false // escaped the tree
	}

	if st, err := os.Stat(clean); err == nil {
		if !st.IsDir() {
			return true
		}
		_, err := os.Stat(filepath.Join(clean, "index.html"))
		return err == nil
	}
	if strings.HasSuffix(target, "/") {
		_, err := os.Stat(filepath.Join(clean, "index.html"))
		return err == nil
	}
	return false
}
