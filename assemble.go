package htmldown

import (
	"fmt"
	"html"
	"strings"
)

// OutputFormat selects what Assemble produces.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
)

const defaultCSS = `body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.6; }
pre { padding: 1rem; overflow-x: auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
blockquote { margin-left: 0; padding-left: 1rem; border-left: 4px solid #ddd; color: #555; }`

const htmlDocument = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
%s<style>
%s
</style>
</head>
<body>
%s
</body>
</html>
`

// Assemble merges the converted body, title and metadata into the final
// artifact. With a template every {{title}}, {{metadata}}, {{content}},
// {{toc}} and {{stylesheet}} placeholder is replaced in one pass, so
// substituted text is never scanned again. Without one, Markdown output
// gets a front matter block and HTML output a minimal page.
func (p *Pipeline) Assemble(doc *ConvertedDocument) (string, error) {
	title := doc.Title
	if t, ok := doc.Metadata.Get("title"); ok && t != "" {
		title = t
	}

	content := doc.Body
	toc := tocMarkdown(doc.TOC)
	var meta string

	switch p.format {
	case FormatHTML:
		var err error
		if content, err = p.renderer.render(content); err != nil {
			return "", err
		}
		if toc != "" {
			if toc, err = p.renderer.render(toc); err != nil {
				return "", err
			}
		}
		title = html.EscapeString(title)
		meta = metaTags(doc.Metadata)
	default:
		fm, err := frontMatterBlock(doc.Metadata)
		if err != nil {
			return "", fmt.Errorf("encode front matter: %w", err)
		}
		meta = fm
	}

	if p.template != "" {
		r := strings.NewReplacer(
			"{{title}}", title,
			"{{metadata}}", meta,
			"{{content}}", content,
			"{{toc}}", toc,
			"{{stylesheet}}", p.stylesheet,
		)
		return r.Replace(p.template), nil
	}

	if p.format == FormatHTML {
		css := defaultCSS
		if p.stylesheet != "" {
			css += "\n" + p.stylesheet
		}
		return fmt.Sprintf(htmlDocument, title, meta, strings.ReplaceAll(css, "</", `<\/`), content), nil
	}
	if meta == "" {
		return content, nil
	}
	return meta + "\n" + content, nil
}

func metaTags(md Metadata) string {
	var b strings.Builder
	for _, k := range md.Keys() {
		v, _ := md.Get(k)
		fmt.Fprintf(&b, "<meta name=\"%s\" content=\"%s\">\n", html.EscapeString(k), html.EscapeString(v))
	}
	return b.String()
}

// tocMarkdown renders entries as a nested link list. The shallowest level
// present is not indented.
func tocMarkdown(entries []TOCEntry) string {
	if len(entries) == 0 {
		return ""
	}
	top := entries[0].Level
	for _, e := range entries {
		if e.Level < top {
			top = e.Level
		}
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = strings.Repeat("  ", e.Level-top) + "- [" + e.Text + "](#" + e.Anchor + ")"
	}
	return strings.Join(lines, "\n")
}
