package site

import (
	"fmt"
	"strings"

	"github.com/anrosca/softice/internal/config"
	"github.com/anrosca/softice/internal/content"
)

// SiteData is the configuration slice surfaced to every template.
type SiteData struct {
	Title        string
	BaseURL      string
	Description  string
	Author       string
	LanguageCode string
	Menu         []config.MenuEntry
	Social       map[string]string
	Comments     config.CommentsConfig
}

func siteData(cfg *config.Config) SiteData {
	return SiteData{
		Title:        cfg.Title,
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		Description:  cfg.Params.Description,
		Author:       cfg.Params.Author,
		LanguageCode: cfg.LanguageCode,
		Menu:         cfg.Menu.Main,
		Social:       cfg.Params.Social,
		Comments:     cfg.Params.Comments,
	}
}

// TermData is one taxonomy term on an overview page.
type TermData struct {
	Name  string
	URL   string
	Count int
}

// PageData is the execution context for every template kind.
type PageData struct {
	Site        SiteData
	Title       string
	Description string
	Permalink   string
	Post        *content.Post
	Posts       []*content.Post
	Terms       []TermData
	Pagination  *Pagination
}

// Pagination describes one page of a paginated list.
type Pagination struct {
	Current int
	Total   int
	baseURL string
}

// pagePath returns the staging-relative file for page n of a list rooted at
// base ("" for the home page, "posts" for a section).
func pagePath(base string, n int) string {
	prefix := ""
	if base != "" {
		prefix = base + "/"
	}
	if n <= 1 {
		return prefix + "index.html"
	}
	return fmt.Sprintf("%spage/%d/index.html", prefix, n)
}

// pageURL returns the site-relative URL for page n.
func pageURL(base string, n int) string {
	prefix := "/"
	if base != "" {
		prefix = "/" + base + "/"
	}
	if n <= 1 {
		return prefix
	}
	return fmt.Sprintf("%spage/%d/", prefix, n)
}

func (p *Pagination) HasPrev() bool { return p.Current > 1 }
func (p *Pagination) HasNext() bool { return p.Current < p.Total }
func (p *Pagination) PrevURL() string {
	return pageURL(p.baseURL, p.Current-1)
}
func (p *Pagination) NextURL() string {
	return pageURL(p.baseURL, p.Current+1)
}

// paginate splits posts into chunks of size per page.
func paginate(posts []*content.Post, size int) [][]*content.Post {
	if size <= 0 || len(posts) == 0 {
		return [][]*content.Post{posts}
	}
	var pages [][]*content.Post
	for start := 0; start < len(posts); start += size {
		end := start + size
		if end > len(posts) {
			end = len(posts)
		}
		pages = append(pages, posts[start:end])
	}
	return pages
}
