package site

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/anrosca/softice/internal/content"
)

// RSS 2.0 feed shapes.
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
}

// renderFeed produces the /index.xml RSS document for the newest posts.
// Drafts and future posts never reach this function; the loader already
// filtered them.
func renderFeed(site SiteData, posts []*content.Post, limit int) ([]byte, error) {
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	ch := rssChannel{
		Title:       site.Title,
		Link:        site.BaseURL + "/",
		Description: site.Description,
		Language:    site.LanguageCode,
	}
	if len(posts) > 0 {
		ch.LastBuildDate = posts[0].Meta.Date.Format(time.RFC1123Z)
	}

	for _, p := range posts {
		link := site.BaseURL + p.Permalink
		ch.Items = append(ch.Items, rssItem{
			Title:       p.Meta.Title,
			Link:        link,
			GUID:        link,
			PubDate:     p.Meta.Date.Format(time.RFC1123Z),
			Description: p.Summary,
			Author:      p.Meta.Author,
		})
	}

	out, err := xml.MarshalIndent(rssFeed{Version: "2.0", Channel: ch}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode rss feed: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
