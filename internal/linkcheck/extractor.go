// Package linkcheck verifies that internal links and image references in the
// rendered site resolve to files that actually exist.
package linkcheck

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is one extracted link from an HTML document.
type Link struct {
	URL        string // the raw href/src value
	Tag        string // HTML tag (a, img, script, link)
	Attribute  string // attribute containing the link
	IsInternal bool   // true when the link targets this site
}

var linkAttributes = map[string]string{
	"a":      "href",
	"img":    "src",
	"script": "src",
	"link":   "href",
	"source": "src",
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string, baseURL string) ([]Link, error) {
	f, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close() // read-only
	}()
	return ExtractLinksFromReader(f, baseURL)
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader, baseURL string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attrName, ok := linkAttributes[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key != attrName || a.Val == "" {
						continue
					}
					links = append(links, Link{
						URL:        a.Val,
						Tag:        n.Data,
						Attribute:  a.Key,
						IsInternal: isInternal(a.Val, base),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func isInternal(raw string, base *url.URL) bool {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return false
	}
	if strings.HasPrefix(raw, "mailto:") || strings.HasPrefix(raw, "tel:") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return true // relative or root-relative
	}
	return u.Host == base.Host
}
