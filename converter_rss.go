package htmldown

import (
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
)

// RSSConverter handles RSS and Atom feeds. Item HTML goes through the
// pipeline; the feed itself supplies title and metadata.
type RSSConverter struct {
	pipeline *Pipeline
}

// NewRSSConverter creates a new RSSConverter.
func NewRSSConverter(p *Pipeline) *RSSConverter {
	return &RSSConverter{pipeline: p}
}

func (c *RSSConverter) Accepts(info StreamInfo) bool {
	switch info.Extension {
	case ".rss", ".atom", ".xml":
		return true
	case ".html", ".htm", ".xhtml":
		return false
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/rss") ||
		strings.HasPrefix(mime, "application/atom") ||
		strings.HasPrefix(mime, "text/xml") ||
		strings.HasPrefix(mime, "application/xml")
}

func (c *RSSConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*ConvertedDocument, error) {
	feed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var (
		b   strings.Builder
		toc []TOCEntry
	)
	anchors := newAnchorSet()
	if feed.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", feed.Description)
	}

	for _, item := range feed.Items {
		if item.Title != "" {
			fmt.Fprintf(&b, "## %s\n\n", item.Title)
			if c.pipeline.tocMin <= 2 && c.pipeline.tocMax >= 2 {
				toc = append(toc, TOCEntry{Level: 2, Text: item.Title, Anchor: anchors.unique(slugify(item.Title))})
			}
		}

		switch {
		case item.Published != "":
			fmt.Fprintf(&b, "Published: %s\n\n", item.Published)
		case item.Updated != "":
			fmt.Fprintf(&b, "Updated: %s\n\n", item.Updated)
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content == "" {
			continue
		}
		if strings.Contains(content, "<") && strings.Contains(content, ">") {
			doc, err := c.pipeline.ConvertString(content)
			if err != nil {
				return nil, fmt.Errorf("feed item %q: %w", item.Title, err)
			}
			content = doc.Body
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	var meta Metadata
	if feed.Title != "" {
		meta.Set("title", feed.Title)
	}
	if feed.Link != "" {
		meta.Set("link", feed.Link)
	}
	if feed.Language != "" {
		meta.Set("language", feed.Language)
	}
	if feed.Updated != "" {
		meta.Set("date", feed.Updated)
	}

	title := feed.Title
	if title == "" {
		title = UntitledDocument
	}
	return &ConvertedDocument{
		Title:    title,
		Body:     b.String(),
		Metadata: meta.Merge(c.pipeline.overrides),
		TOC:      toc,
	}, nil
}
