package site

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/anrosca/softice/internal/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists every page URL for crawlers.
func renderSitemap(site SiteData, posts []*content.Post, extraURLs []string) ([]byte, error) {
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{Loc: site.BaseURL + "/"})

	for _, u := range extraURLs {
		set.URLs = append(set.URLs, sitemapURL{Loc: site.BaseURL + u})
	}

	for _, p := range posts {
		mod := p.Meta.Date
		if !p.Meta.Lastmod.IsZero() {
			mod = p.Meta.Lastmod
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     site.BaseURL + p.Permalink,
			LastMod: mod.Format(time.RFC3339),
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
