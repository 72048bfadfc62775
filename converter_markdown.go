package htmldown

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// MarkdownConverter handles Markdown and plain text. Such input skips the
// structural pass; hooks, front matter and shortcodes still apply.
type MarkdownConverter struct {
	pipeline *Pipeline
}

// NewMarkdownConverter creates a new MarkdownConverter.
func NewMarkdownConverter(p *Pipeline) *MarkdownConverter {
	return &MarkdownConverter{pipeline: p}
}

func (c *MarkdownConverter) Accepts(info StreamInfo) bool {
	switch info.Extension {
	case ".md", ".markdown", ".txt":
		return true
	case ".html", ".htm", ".xhtml":
		return false
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "text/markdown") ||
		strings.HasPrefix(mime, "text/x-markdown") ||
		strings.HasPrefix(mime, "text/plain")
}

func (c *MarkdownConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*ConvertedDocument, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return c.pipeline.ConvertMarkdown(decodeText(data, info, false))
}

var reATXHeading = regexp.MustCompile(`^(#{1,6})[ \t]+(.+?)[ \t#]*$`)

// markdownOutline finds the title and table of contents of Markdown text.
// Headings inside fenced code are ignored.
func markdownOutline(body string, tocMin, tocMax int) (string, []TOCEntry) {
	var (
		title string
		toc   []TOCEntry
		fence string
	)
	anchors := newAnchorSet()
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, fence[:1]) == "" {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:len(trimmed)-len(strings.TrimLeft(trimmed, trimmed[:1]))]
			continue
		}

		m := reATXHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := m[2]
		if title == "" {
			title = text
		}
		level := len(m[1])
		if level < tocMin || level > tocMax {
			continue
		}
		toc = append(toc, TOCEntry{Level: level, Text: text, Anchor: anchors.unique(slugify(text))})
	}
	if title == "" {
		title = UntitledDocument
	}
	return title, toc
}
