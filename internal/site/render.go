package site

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anrosca/softice/internal/content"
	"github.com/anrosca/softice/internal/linkcheck"
	"github.com/anrosca/softice/internal/markdown"
)

// stageTemplates compiles the template set. Any template error aborts the
// build; a partial site is never published.
func stageTemplates(_ context.Context, bs *BuildState) error {
	ts, err := LoadTemplates(bs.Config.Build.LayoutsDir)
	if err != nil {
		return newFatalStageError("templates", err)
	}
	bs.Templates = ts
	return nil
}

// stageRenderPosts converts every post body to HTML and renders its page.
func stageRenderPosts(ctx context.Context, bs *BuildState) error {
	site := siteData(bs.Config)
	for _, p := range bs.Posts {
		if ctx.Err() != nil {
			return newCanceledStageError("render", ctx.Err())
		}

		htmlBody, err := bs.Converter.Render(p.Body)
		if err != nil {
			return newFatalStageError("render", fmt.Errorf("%s: %w", p.Path, err))
		}
		p.HTML = htmlBody

		var buf bytes.Buffer
		data := &PageData{
			Site:        site,
			Title:       p.Meta.Title,
			Description: p.Summary,
			Permalink:   p.Permalink,
			Post:        p,
		}
		if err := bs.Templates.ExecuteSingle(&buf, data); err != nil {
			return newFatalStageError("render", fmt.Errorf("%s: %w", p.Path, err))
		}
		if err := bs.Staging.WriteFile(p.OutputPath(), buf.Bytes()); err != nil {
			return newFatalStageError("render", err)
		}
		bs.countPage()
	}
	return nil
}

// stageLists renders the home page and one paginated list per section.
func stageLists(ctx context.Context, bs *BuildState) error {
	site := siteData(bs.Config)

	if err := renderList(bs, site, "", bs.Config.Title, bs.Posts); err != nil {
		return err
	}

	for _, section := range sections(bs.Posts) {
		if ctx.Err() != nil {
			return newCanceledStageError("lists", ctx.Err())
		}
		var posts []*content.Post
		for _, p := range bs.Posts {
			if p.Section == section {
				posts = append(posts, p)
			}
		}
		if err := renderList(bs, site, section, sectionTitle(section), posts); err != nil {
			return err
		}
	}
	return nil
}

func renderList(bs *BuildState, site SiteData, base, title string, posts []*content.Post) error {
	pages := paginate(posts, bs.Config.Params.Paginate)
	total := len(pages)
	for i, chunk := range pages {
		data := &PageData{
			Site:        site,
			Title:       title,
			Description: site.Description,
			Permalink:   pageURL(base, i+1),
			Posts:       chunk,
		}
		if total > 1 {
			data.Pagination = &Pagination{Current: i + 1, Total: total, baseURL: base}
		}

		var buf bytes.Buffer
		if err := bs.Templates.ExecuteList(&buf, data); err != nil {
			return newFatalStageError("lists", fmt.Errorf("list %q page %d: %w", base, i+1, err))
		}
		if err := bs.Staging.WriteFile(pagePath(base, i+1), buf.Bytes()); err != nil {
			return newFatalStageError("lists", err)
		}
		bs.countPage()
	}
	return nil
}

// stageTaxonomies renders the tag/category overviews and per-term lists.
// Each term gets its own index page; changing a post's terms only touches
// the term pages it participates in.
func stageTaxonomies(ctx context.Context, bs *BuildState) error {
	site := siteData(bs.Config)

	for _, tx := range []struct {
		root  string
		title string
		terms content.Taxonomy
	}{
		{"tags", "Tags", bs.Taxonomies.Tags},
		{"categories", "Categories", bs.Taxonomies.Categories},
	} {
		if ctx.Err() != nil {
			return newCanceledStageError("taxonomies", ctx.Err())
		}

		var terms []TermData
		for _, term := range tx.terms.Terms() {
			slug := content.Slugify(term)
			terms = append(terms, TermData{
				Name:  term,
				URL:   "/" + tx.root + "/" + slug + "/",
				Count: len(tx.terms[term]),
			})
		}

		var buf bytes.Buffer
		data := &PageData{
			Site:      site,
			Title:     tx.title,
			Permalink: "/" + tx.root + "/",
			Terms:     terms,
		}
		if err := bs.Templates.ExecuteTerms(&buf, data); err != nil {
			return newFatalStageError("taxonomies", fmt.Errorf("%s overview: %w", tx.root, err))
		}
		if err := bs.Staging.WriteFile(tx.root+"/index.html", buf.Bytes()); err != nil {
			return newFatalStageError("taxonomies", err)
		}
		bs.countPage()

		for _, term := range tx.terms.Terms() {
			base := tx.root + "/" + content.Slugify(term)
			if err := renderList(bs, site, base, term, tx.terms[term]); err != nil {
				return err
			}
		}
	}
	return nil
}

// stageAliases writes meta-refresh redirect pages for moved posts.
func stageAliases(_ context.Context, bs *BuildState) error {
	for _, p := range bs.Posts {
		for _, alias := range p.Meta.Aliases {
			rel := strings.Trim(alias, "/")
			if rel == "" {
				continue
			}
			if !strings.HasSuffix(rel, ".html") {
				rel += "/index.html"
			}
			target := html.EscapeString(p.Permalink)
			page := fmt.Sprintf("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><meta http-equiv=\"refresh\" content=\"0; url=%s\"><link rel=\"canonical\" href=\"%s\"></head></html>\n", target, target)
			if err := bs.Staging.WriteFile(rel, []byte(page)); err != nil {
				return newFatalStageError("aliases", err)
			}
			bs.countPage()
		}
	}
	return nil
}

// stageFeed renders the RSS feed.
func stageFeed(_ context.Context, bs *BuildState) error {
	out, err := renderFeed(siteData(bs.Config), bs.Posts, bs.Config.Params.RSSLimit)
	if err != nil {
		return newFatalStageError("feed", err)
	}
	if err := bs.Staging.WriteFile("index.xml", out); err != nil {
		return newFatalStageError("feed", err)
	}
	return nil
}

// stageSearchIndex renders the client-side search index.
func stageSearchIndex(_ context.Context, bs *BuildState) error {
	out, err := renderSearchIndex(bs.Posts)
	if err != nil {
		return newFatalStageError("search", err)
	}
	if err := bs.Staging.WriteFile("index.json", out); err != nil {
		return newFatalStageError("search", err)
	}
	return nil
}

// stageSitemap renders sitemap.xml.
func stageSitemap(_ context.Context, bs *BuildState) error {
	extras := []string{"/tags/", "/categories/"}
	for _, s := range sections(bs.Posts) {
		extras = append(extras, "/"+s+"/")
	}
	out, err := renderSitemap(siteData(bs.Config), bs.Posts, extras)
	if err != nil {
		return newFatalStageError("sitemap", err)
	}
	if err := bs.Staging.WriteFile("sitemap.xml", out); err != nil {
		return newFatalStageError("sitemap", err)
	}
	return nil
}

// stageStaticCopy copies the static tree verbatim into the staging root.
func stageStaticCopy(ctx context.Context, bs *BuildState) error {
	staticDir := bs.Config.Build.StaticDir
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		return nil
	}
	err := filepath.WalkDir(staticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(staticDir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return bs.Staging.WriteFile(filepath.ToSlash(rel), data)
	})
	if err != nil {
		return newFatalStageError("static", err)
	}
	return nil
}

// stageVerify checks markdown asset references and rendered internal links.
// Violations are warnings unless strict link checking is enabled.
func stageVerify(_ context.Context, bs *BuildState) error {
	var problems []string

	// Markdown-level references that the renderer may have passed through.
	for _, p := range bs.Posts {
		for _, ref := range markdown.LocalRefs(markdown.ExtractRefs(p.Body)) {
			if !stagingHas(bs, p, ref.Destination) {
				problems = append(problems, fmt.Sprintf("%s: unresolved reference %q", p.Path, ref.Destination))
			}
		}
	}

	violations, err := linkcheck.VerifyDir(bs.Staging.Path(), bs.Config.BaseURL)
	if err != nil {
		return newFatalStageError("verify", err)
	}
	for _, v := range violations {
		problems = append(problems, v.String())
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	err = fmt.Errorf("%d broken internal references (first: %s)", len(problems), problems[0])
	if bs.Options.StrictLinks || bs.Config.Build.StrictLinks {
		return newFatalStageError("verify", err)
	}
	return newWarnStageError("verify", err)
}

// stagingHas resolves a markdown destination against the staging tree.
func stagingHas(bs *BuildState, p *content.Post, dest string) bool {
	dest = strings.SplitN(dest, "#", 2)[0]
	dest = strings.SplitN(dest, "?", 2)[0]
	if dest == "" {
		return true
	}
	var rel string
	if strings.HasPrefix(dest, "/") {
		rel = strings.TrimPrefix(dest, "/")
	} else {
		rel = filepath.ToSlash(filepath.Join(filepath.Dir(p.OutputPath()), dest))
	}
	abs := filepath.Join(bs.Staging.Path(), filepath.FromSlash(rel))
	if st, err := os.Stat(abs); err == nil {
		if !st.IsDir() {
			return true
		}
		_, err := os.Stat(filepath.Join(abs, "index.html"))
		return err == nil
	}
	_, err := os.Stat(filepath.Join(abs, "index.html"))
	return err == nil
}

// sections returns the unique post sections, sorted.
func sections(posts []*content.Post) []string {
	seen := map[string]bool{}
	for _, p := range posts {
		if p.Section != "" {
			seen[p.Section] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// sectionTitle uppercases the first letter of a section name for list pages.
func sectionTitle(section string) string {
	if section == "" {
		return ""
	}
	return strings.ToUpper(section[:1]) + section[1:]
}
