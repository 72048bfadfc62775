// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package htmldown

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/marker"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/charmbracelet/log"
	xhtml "golang.org/x/net/html"
)

// UntitledDocument is the title of a document without headings or <title>.
const UntitledDocument = "Untitled"

// TOCEntry is one heading in a table of contents.
type TOCEntry struct {
	Level  int
	Text   string
	Anchor string
}

type structuralResult struct {
	Markdown string
	Title    string
	TOC      []TOCEntry
}

// ownedTags are rendered by the structural pass itself. Mapped elements
// outside this set are kept as bare containers for relabeling.
var ownedTags = map[string]bool{
	"html": true, "head": true, "body": true, "title": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "br": true, "a": true, "img": true, "code": true, "pre": true,
	"em": true, "i": true, "strong": true, "b": true, "font": true,
	"ul": true, "ol": true, "li": true, "hr": true, "blockquote": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "td": true, "th": true, "caption": true,
	"form": true, "input": true, "textarea": true, "button": true, "select": true, "option": true,
	"div": true, "span": true,
	"article": true, "section": true, "nav": true, "aside": true, "header": true, "footer": true,
	"details": true, "summary": true, "figure": true, "figcaption": true,
	"script": true, "style": true,
}

// structural turns an HTML tree into flat markup. Constructs that later
// rewrite stages own are written back out as normalized tags.
type structural struct {
	cfg    ConversionConfig
	tocMin int
	tocMax int
	conv   *converter.Converter
	logger *log.Logger
}

func newStructural(cfg ConversionConfig, elements ElementMap, tocMin, tocMax int, logger *log.Logger) *structural {
	s := &structural{
		cfg:    cfg,
		tocMin: tocMin,
		tocMax: tocMax,
		logger: logger,
	}
	s.conv = converter.NewConverter(
		converter.WithEscapeMode(converter.EscapeModeDisabled),
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
				commonmark.WithEmDelimiter("*"),
				commonmark.WithStrongDelimiter("**"),
				commonmark.WithListEndComment(false),
			),
		),
	)
	s.registerRenderers(elements)
	return s
}

func (s *structural) registerRenderers(elements ElementMap) {
	block := func(name string, fn converter.HandleRenderFunc) {
		s.conv.Register.RendererFor(name, converter.TagTypeBlock, fn, converter.PriorityEarly)
	}
	inline := func(name string, fn converter.HandleRenderFunc) {
		s.conv.Register.RendererFor(name, converter.TagTypeInline, fn, converter.PriorityEarly)
	}

	block("pre", renderPre)
	inline("code", renderInlineCode)
	block("hr", func(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
		w.WriteString("\n\n<hr />\n\n")
		return converter.RenderSuccess
	})
	block("ul", wrapBlock())
	block("ol", wrapBlock())
	block("li", wrapTight("", "\n"))

	if s.cfg.PreserveBlockquotes {
		block("blockquote", wrapBlock())
	} else {
		block("blockquote", base.RenderAsPlaintextWrapper)
	}

	if s.cfg.PreserveTables {
		block("table", wrapBlock())
		block("caption", wrapTight("\n", "\n"))
		block("tr", wrapTight("\n", "\n"))
		block("th", wrapTight("", ""))
		block("td", wrapTight("", ""))
		for _, name := range []string{"thead", "tbody", "tfoot"} {
			block(name, renderChildren)
		}
	} else {
		for _, name := range []string{"caption", "th", "td"} {
			block(name, renderParagraph)
		}
	}

	inline("a", s.renderLink)
	inline("img", s.renderImage)
	if !s.cfg.PreserveEmphasis {
		for _, name := range []string{"em", "i", "strong", "b"} {
			inline(name, renderChildren)
		}
	}
	if s.cfg.PreserveAnchors {
		for level := 1; level <= 6; level++ {
			block("h"+strconv.Itoa(level), renderHeadingAnchor)
		}
	}

	block("p", func(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
		if styleOf(n) == "" {
			return converter.RenderTryNext
		}
		return wrapBlock("style")(ctx, w, n)
	})
	block("div", wrapBlock("style"))
	inline("span", wrapInline("style"))
	inline("font", func(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
		if styleOf(n) == "" {
			return renderChildren(ctx, w, n)
		}
		return wrapInline("style")(ctx, w, n)
	})

	block("form", wrapBlock())
	inline("input", renderInput)
	inline("textarea", renderTextarea)
	inline("button", renderButton)
	inline("select", renderSelect)

	for _, name := range []string{"article", "section", "nav", "aside", "header", "footer", "details", "summary", "figure", "figcaption"} {
		block(name, wrapBlock())
	}

	// Embedded content keeps its fallback text.
	block("noscript", renderParagraph)
	block("iframe", renderParagraph)

	for _, name := range elements.Names() {
		if !ownedTags[name] {
			block(name, wrapBlock())
		}
	}
}

// convert renders doc. A failing structural pass degrades to the plain
// text of the document.
func (s *structural) convert(doc string) structuralResult {
	root, err := xhtml.Parse(strings.NewReader(doc))
	if err != nil {
		s.logger.Warn("html parse failed, using plain text", "err", err)
		return structuralResult{Markdown: plainText(doc), Title: UntitledDocument}
	}

	title, toc := s.outline(root)
	md, err := s.render(root)
	if err != nil {
		s.logger.Warn("structural conversion failed, using plain text", "err", err)
		md = plainText(doc)
	}
	return structuralResult{Markdown: md, Title: title, TOC: toc}
}

func (s *structural) render(root *xhtml.Node) (md string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("structural pass panicked: %v", r)
		}
	}()
	out, err := s.conv.ConvertNode(root)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// outline collects the title and the table of contents of the tree.
func (s *structural) outline(root *xhtml.Node) (string, []TOCEntry) {
	var (
		heading, pageTitle string
		toc                []TOCEntry
	)
	anchors := newAnchorSet()
	nodes := dom.FindAllNodes(root, func(n *xhtml.Node) bool {
		name := dom.NodeName(n)
		return name == "title" || dom.NameIsHeading(name)
	})
	for _, n := range nodes {
		text := strings.Join(strings.Fields(dom.CollectText(n)), " ")
		name := dom.NodeName(n)
		if name == "title" {
			if pageTitle == "" {
				pageTitle = text
			}
			continue
		}
		if text == "" {
			continue
		}
		if heading == "" {
			heading = text
		}
		level := int(name[1] - '0')
		if level < s.tocMin || level > s.tocMax {
			continue
		}
		anchor := dom.GetAttributeOr(n, "id", "")
		if anchor == "" {
			anchor = slugify(text)
		}
		toc = append(toc, TOCEntry{Level: level, Text: text, Anchor: anchors.unique(anchor)})
	}

	switch {
	case heading != "":
		return heading, toc
	case pageTitle != "":
		return pageTitle, toc
	}
	return UntitledDocument, toc
}

type anchorSet map[string]int

func newAnchorSet() anchorSet { return make(anchorSet) }

// unique suffixes repeated anchors with -1, -2 and so on.
func (a anchorSet) unique(anchor string) string {
	n, seen := a[anchor]
	a[anchor] = n + 1
	if !seen {
		return anchor
	}
	return anchor + "-" + strconv.Itoa(n)
}

// slugify lower-cases text and joins its words with hyphens.
func slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			dash = true
		}
	}
	if b.Len() == 0 {
		return "section"
	}
	return b.String()
}

// plainText returns the text content of doc, skipping scripts and styles.
func plainText(doc string) string {
	z := xhtml.NewTokenizer(strings.NewReader(doc))
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return strings.TrimSpace(b.String())
		case xhtml.StartTagToken:
			if name, _ := z.TagName(); string(name) == "script" || string(name) == "style" {
				skip++
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
		case xhtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func renderChildren(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	ctx.RenderChildNodes(ctx, w, n)
	return converter.RenderSuccess
}

// renderParagraph renders the children of n as a paragraph of their own.
func renderParagraph(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	w.WriteString("\n\n")
	ctx.RenderChildNodes(ctx, w, n)
	w.WriteString("\n\n")
	return converter.RenderSuccess
}

// wrapBlock keeps the element as a tag pair on its own lines.
func wrapBlock(keep ...string) converter.HandleRenderFunc {
	return func(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
		w.WriteString("\n\n")
		writeOpenTag(w, n, keep...)
		w.WriteString("\n\n")
		ctx.RenderChildNodes(ctx, w, n)
		w.WriteString("\n\n</" + n.Data + ">\n\n")
		return converter.RenderSuccess
	}
}

// wrapTight keeps the element as a tag pair without blank lines.
func wrapTight(before, after string) converter.HandleRenderFunc {
	return func(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
		w.WriteString(before)
		writeOpenTag(w, n)
		ctx.RenderChildNodes(ctx, w, n)
		w.WriteString("</" + n.Data + ">" + after)
		return converter.RenderSuccess
	}
}

func wrapInline(keep ...string) converter.HandleRenderFunc {
	return func(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
		writeOpenTag(w, n, keep...)
		ctx.RenderChildNodes(ctx, w, n)
		w.WriteString("</" + n.Data + ">")
		return converter.RenderSuccess
	}
}

// writeOpenTag writes the start tag of n with only the kept attributes.
// A legacy align attribute is folded into style.
func writeOpenTag(w converter.Writer, n *xhtml.Node, keep ...string) {
	w.WriteString("<" + n.Data)
	for _, key := range keep {
		value := dom.GetAttributeOr(n, key, "")
		if key == "style" {
			value = styleOf(n)
		}
		if value == "" {
			continue
		}
		w.WriteString(" " + key + `="` + html.EscapeString(value) + `"`)
	}
	w.WriteString(">")
}

func styleOf(n *xhtml.Node) string {
	style := strings.TrimSpace(dom.GetAttributeOr(n, "style", ""))
	if align := strings.TrimSpace(dom.GetAttributeOr(n, "align", "")); align != "" {
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		style = strings.TrimSpace(style + " text-align: " + strings.ToLower(align))
	}
	return style
}

func renderPre(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	code := strings.TrimSuffix(dom.CollectText(n), "\n")

	w.WriteString("\n\n<pre><code")
	if lang := codeLanguage(n); lang != "" {
		w.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
	}
	w.WriteString(">")
	w.WriteString(strings.ReplaceAll(html.EscapeString(code), "\n", string(marker.MarkerCodeBlockNewline)))
	w.WriteString("</code></pre>\n\n")
	return converter.RenderSuccess
}

var codeEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// renderInlineCode writes a code span with its markup characters still
// escaped, so the rewrite stages cannot mistake quoted tags for real ones.
// unescapeCodeSpans restores them once the stages are done.
func renderInlineCode(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	code := strings.Join(strings.Fields(dom.CollectText(n)), " ")
	if code == "" {
		return converter.RenderSuccess
	}
	fence := "`"
	for _, run := range reBackticks.FindAllString(code, -1) {
		if len(run) >= len(fence) {
			fence = strings.Repeat("`", len(run)+1)
		}
	}
	if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") {
		code = " " + code + " "
	}
	w.WriteString(fence + codeEscaper.Replace(code) + fence)
	return converter.RenderSuccess
}

// codeLanguage reads a language-x or lang-x class from the code element
// or from the pre element itself.
func codeLanguage(pre *xhtml.Node) string {
	candidates := []*xhtml.Node{}
	if code := dom.FindFirstNode(pre, func(n *xhtml.Node) bool { return dom.NodeName(n) == "code" }); code != nil {
		candidates = append(candidates, code)
	}
	candidates = append(candidates, pre)
	for _, n := range candidates {
		for _, class := range dom.GetClasses(n) {
			for _, prefix := range []string{"language-", "lang-"} {
				if strings.HasPrefix(class, prefix) && len(class) > len(prefix) {
					return strings.TrimPrefix(class, prefix)
				}
			}
		}
	}
	return ""
}

func (s *structural) renderLink(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	href, ok := dom.GetAttribute(n, "href")
	if !ok {
		if id := anchorID(n); id != "" && s.cfg.PreserveAnchors {
			w.WriteString(`<a id="` + html.EscapeString(id) + `"></a>`)
		}
		return renderChildren(ctx, w, n)
	}
	if !s.cfg.PreserveLinks {
		return renderChildren(ctx, w, n)
	}
	if strings.HasPrefix(strings.TrimSpace(href), "#") && !s.cfg.PreserveAnchors {
		return renderChildren(ctx, w, n)
	}
	return converter.RenderTryNext
}

func anchorID(n *xhtml.Node) string {
	if id := dom.GetAttributeOr(n, "id", ""); id != "" {
		return id
	}
	return dom.GetAttributeOr(n, "name", "")
}

func renderHeadingAnchor(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	if id := dom.GetAttributeOr(n, "id", ""); id != "" {
		w.WriteString("\n\n<a id=\"" + html.EscapeString(id) + "\"></a>\n\n")
	}
	return converter.RenderTryNext
}

func (s *structural) renderImage(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	if s.cfg.PreserveImages {
		return converter.RenderTryNext
	}
	w.WriteString(strings.TrimSpace(dom.GetAttributeOr(n, "alt", "")))
	return converter.RenderSuccess
}

func renderInput(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	w.WriteString("<input")
	for _, key := range []string{"name", "type", "value"} {
		if v, ok := dom.GetAttribute(n, key); ok {
			w.WriteString(" " + key + `="` + html.EscapeString(v) + `"`)
		}
	}
	w.WriteString(" />")
	return converter.RenderSuccess
}

func renderTextarea(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	writeOpenTag(w, n, "name")
	w.WriteString(html.EscapeString(strings.Join(strings.Fields(dom.CollectText(n)), " ")))
	w.WriteString("</textarea>")
	return converter.RenderSuccess
}

func renderButton(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	w.WriteString("<button>")
	w.WriteString(html.EscapeString(strings.Join(strings.Fields(dom.CollectText(n)), " ")))
	w.WriteString("</button>")
	return converter.RenderSuccess
}

func renderSelect(ctx converter.Context, w converter.Writer, n *xhtml.Node) converter.RenderStatus {
	writeOpenTag(w, n, "name")
	options := dom.FindAllNodes(n, func(o *xhtml.Node) bool { return dom.NodeName(o) == "option" })
	for _, o := range options {
		w.WriteString("<option>")
		w.WriteString(html.EscapeString(strings.Join(strings.Fields(dom.CollectText(o)), " ")))
		w.WriteString("</option>")
	}
	w.WriteString("</select>")
	return converter.RenderSuccess
}
