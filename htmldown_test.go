package htmldown

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func mustNew(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p
}

func convertBody(t *testing.T, p *Pipeline, doc string) string {
	t.Helper()
	result, err := p.ConvertString(doc)
	if err != nil {
		t.Fatalf("ConvertString(%q) error: %v", doc, err)
	}
	return result.Body
}

var noAnchors = ConversionConfig{
	PreserveLinks:       true,
	PreserveImages:      true,
	PreserveEmphasis:    true,
	PreserveTables:      true,
	PreserveBlockquotes: true,
}

func TestConvertString(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		input string
		want  string
	}{
		{
			name:  "nested list",
			input: "<ul><li>First<ul><li>Nested</li></ul></li><li>Second</li></ul>",
			want:  "- First\n  - Nested\n- Second",
		},
		{
			name:  "heading and paragraph",
			input: "<h1>Hello</h1><p>World</p>",
			want:  "# Hello\n\nWorld",
		},
		{
			name:  "emphasis kept",
			input: "<p><strong>b</strong> <em>i</em></p>",
			want:  "**b** *i*",
		},
		{
			name:  "emphasis dropped",
			opts:  []Option{WithConfig(ConversionConfig{PreserveLinks: true, PreserveImages: true})},
			input: "<p><strong>b</strong> <em>i</em></p>",
			want:  "b i",
		},
		{
			name:  "link kept",
			input: `<p><a href="https://example.com">site</a></p>`,
			want:  "[site](https://example.com)",
		},
		{
			name:  "link dropped",
			opts:  []Option{WithConfig(ConversionConfig{PreserveImages: true})},
			input: `<p><a href="https://example.com">site</a></p>`,
			want:  "site",
		},
		{
			name:  "image dropped to alt text",
			opts:  []Option{WithConfig(ConversionConfig{PreserveLinks: true})},
			input: `<p><img src="a.png" alt="Alt"></p>`,
			want:  "Alt",
		},
		{
			name:  "blockquote",
			input: "<blockquote><p>q</p></blockquote>",
			want:  "> q",
		},
		{
			name:  "blockquote dropped",
			opts:  []Option{WithConfig(ConversionConfig{})},
			input: "<blockquote><p>q</p></blockquote>",
			want:  "q",
		},
		{
			name:  "table",
			input: "<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>",
			want:  "| A | B |\n| --- | --- |\n| 1 | 2 |",
		},
		{
			name:  "code block",
			input: "<pre><code class=\"language-go\">if a &lt; b {\n\treturn\n}</code></pre>",
			want:  "```go\nif a < b {\n\treturn\n}\n```",
		},
		{
			name:  "horizontal rule",
			input: "<p>a</p><hr><p>b</p>",
			want:  "a\n\n---\n\nb",
		},
		{
			name:  "form",
			input: `<form><input name="q" type="search"><button>Go</button></form>`,
			want:  "- Input: q (search)\n- Button: Go",
		},
		{
			name:  "centered paragraph",
			input: `<p style="text-align: center">Hello</p>`,
			want:  "<div align=\"center\">\n\nHello\n\n</div>",
		},
		{
			name:  "bold span",
			input: `<p><span style="font-weight:bold">Bold</span> text</p>`,
			want:  "**Bold** text",
		},
		{
			name:  "details",
			input: "<details><summary>More</summary><p>Hidden</p></details>",
			want:  "### More\n\nHidden",
		},
		{
			name:  "figure",
			input: `<figure><img src="cat.png"><figcaption>A cat</figcaption></figure>`,
			want:  "![A cat](cat.png)",
		},
		{
			name:  "semantic and generic containers",
			input: "<article><section><div><p>Inside</p></div></section></article>",
			want:  "Inside",
		},
		{
			name:  "custom element",
			opts:  []Option{WithElementMap(ElementMap{"callout": "note"})},
			input: "<article><callout>Careful</callout></article>",
			want:  "<div class=\"note\">\n\nCareful\n\n</div>",
		},
		{
			name:  "shortcode",
			opts:  []Option{WithShortcodes(ShortcodeMap{"year": "2024"})},
			input: "<p>Year [[year]]</p>",
			want:  "Year 2024",
		},
		{
			name:  "table dropped to paragraphs",
			opts:  []Option{WithConfig(ConversionConfig{PreserveLinks: true})},
			input: "<table><tr><th>Name</th><th>Age</th></tr><tr><td>Ann</td><td>30</td></tr></table>",
			want:  "Name\n\nAge\n\nAnn\n\n30",
		},
		{
			name:  "heading anchor dropped",
			opts:  []Option{WithConfig(noAnchors)},
			input: `<h2 id="intro">Intro</h2><p><a href="#intro">Back</a></p>`,
			want:  "## Intro\n\nBack",
		},
		{
			name:  "external link kept without anchors",
			opts:  []Option{WithConfig(noAnchors)},
			input: `<p><a href="https://example.com/#top">Top</a></p>`,
			want:  "[Top](https://example.com/#top)",
		},
		{
			name:  "inline code quoting a rule",
			input: "<p>Use <code>&lt;hr&gt;</code> for rules</p>",
			want:  "Use `<hr>` for rules",
		},
		{
			name:  "inline code quoting a list",
			input: "<p><code>&lt;ul&gt;&lt;li&gt;a&lt;/li&gt;&lt;/ul&gt;</code></p>",
			want:  "`<ul><li>a</li></ul>`",
		},
		{
			name:  "inline code with ampersands and backticks",
			input: "<p><code>a &amp;&amp; b</code> and <code>x `y` z</code></p>",
			want:  "`a && b` and ``x `y` z``",
		},
		{
			name:  "embedded fallback text",
			input: "<p>a</p><noscript>ns</noscript><iframe>fr</iframe>",
			want:  "a\n\nns\n\nfr",
		},
		{
			name:  "wrapped paragraph",
			opts:  []Option{WithConfig(ConversionConfig{WrapWidth: 20})},
			input: "<p>one two three four five six seven</p>",
			want:  "one two three four\nfive six seven",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustNew(t, tt.opts...)
			if got := convertBody(t, p, tt.input); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertStringAnchors(t *testing.T) {
	body := convertBody(t, mustNew(t), `<h2 id="intro">Intro</h2><p><a href="#intro">Back</a></p>`)
	for _, want := range []string{`<a id="intro"></a>`, "## Intro", "[Back](#intro)"} {
		if !strings.Contains(body, want) {
			t.Errorf("body = %q, missing %q", body, want)
		}
	}
}

func TestConvertStringFrontMatter(t *testing.T) {
	p := mustNew(t)
	result, err := p.ConvertString("---\ntitle: Demo\n---\n# Hi")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"title": "Demo"}, result.Metadata.Map()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if result.Body != "# Hi" {
		t.Errorf("body = %q, want %q", result.Body, "# Hi")
	}
}

func TestConvertStringMetadataOverrides(t *testing.T) {
	var overrides Metadata
	overrides.Set("title", "New")
	overrides.Set("lang", "en")

	p := mustNew(t, WithMetadata(overrides))
	result, err := p.ConvertString("---\ntitle: Old\nauthor: Ada\n---\n<p>x</p>")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"title": "New", "author": "Ada", "lang": "en"}
	if diff := cmp.Diff(want, result.Metadata.Map()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertStringUnclosedFrontMatter(t *testing.T) {
	p := mustNew(t)
	result, err := p.ConvertString("---\ntitle: X\n<p>body</p>")
	if err != nil {
		t.Fatalf("unclosed front matter must not fail: %v", err)
	}
	if result.Metadata.Len() != 0 {
		t.Errorf("metadata = %v, want empty", result.Metadata.Map())
	}
	if !strings.Contains(result.Body, "body") {
		t.Errorf("body %q lost the document text", result.Body)
	}
}

func TestUnsupportedTagDegrades(t *testing.T) {
	p := mustNew(t)
	for _, doc := range []string{"<foo>bar</foo>", "<p>x <foo>bar</foo> y</p>", "<ul><li><foo>bar</foo></li></ul>"} {
		body := convertBody(t, p, doc)
		if !strings.Contains(body, "bar") {
			t.Errorf("ConvertString(%q) = %q, want it to contain %q", doc, body, "bar")
		}
		if strings.Contains(body, "<foo>") {
			t.Errorf("ConvertString(%q) kept the unknown tag: %q", doc, body)
		}
	}
}

func TestTitleAndTOC(t *testing.T) {
	p := mustNew(t)
	result, err := p.ConvertString(`<h1>Title</h1><h2>Intro</h2><h3 id="deep">Deep</h3><h2>Intro</h2><h4>Skip</h4>`)
	if err != nil {
		t.Fatal(err)
	}
	if result.Title != "Title" {
		t.Errorf("Title = %q, want %q", result.Title, "Title")
	}
	want := []TOCEntry{
		{Level: 2, Text: "Intro", Anchor: "intro"},
		{Level: 3, Text: "Deep", Anchor: "deep"},
		{Level: 2, Text: "Intro", Anchor: "intro-1"},
	}
	if diff := cmp.Diff(want, result.TOC); diff != "" {
		t.Errorf("TOC mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(result.Body, `<a id="deep"></a>`) {
		t.Errorf("body %q is missing the heading anchor", result.Body)
	}
}

func TestTitleFallbacks(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{"<html><head><title>Page</title></head><body><p>x</p></body></html>", "Page"},
		{"<p>no headings</p>", UntitledDocument},
		{"<title>Page</title><h2>Heading</h2>", "Heading"},
	}
	p := mustNew(t)
	for _, tt := range tests {
		result, err := p.ConvertString(tt.doc)
		if err != nil {
			t.Fatal(err)
		}
		if result.Title != tt.want {
			t.Errorf("Title for %q = %q, want %q", tt.doc, result.Title, tt.want)
		}
	}
}

func TestHooks(t *testing.T) {
	var order []string
	appendHook := func(tag string) Preprocessor {
		return PreprocessorFunc(func(doc string) (string, error) {
			order = append(order, tag)
			return doc + "<p>" + tag + "</p>", nil
		})
	}

	p := mustNew(t, WithPreprocessor("first", appendHook("one")), WithPreprocessor("second", appendHook("two")))
	body := convertBody(t, p, "<p>start</p>")
	if body != "start\n\none\n\ntwo" {
		t.Errorf("body = %q", body)
	}
	if diff := cmp.Diff([]string{"one", "two"}, order); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
}

func TestHookSeesRawDocument(t *testing.T) {
	var seen string
	p := mustNew(t, WithPreprocessor("spy", PreprocessorFunc(func(doc string) (string, error) {
		seen = doc
		return strings.Replace(doc, "Old", "New", 1), nil
	})))
	result, err := p.ConvertString("---\ntitle: Old\n---\n<p>x</p>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(seen, "---\ntitle: Old") {
		t.Errorf("hook saw %q, want the raw document", seen)
	}
	if v, _ := result.Metadata.Get("title"); v != "New" {
		t.Errorf("title = %q, want the hook's rewrite", v)
	}
}

func TestHookFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		hook Preprocessor
	}{
		{"error", PreprocessorFunc(func(string) (string, error) { return "", boom })},
		{"panic", PreprocessorFunc(func(string) (string, error) { panic("kaboom") })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok := PreprocessorFunc(func(doc string) (string, error) { return doc, nil })
			p := mustNew(t, WithPreprocessor("ok", ok), WithPreprocessor("bad", tt.hook))

			_, err := p.ConvertString("<p>x</p>")
			var hookErr *HookError
			if !errors.As(err, &hookErr) {
				t.Fatalf("err = %v, want *HookError", err)
			}
			if hookErr.Index != 1 || hookErr.Name != "bad" {
				t.Errorf("HookError = %+v, want index 1 named bad", hookErr)
			}
			if !IsHookFailure(err) {
				t.Error("IsHookFailure() = false")
			}
		})
	}
}

func TestHookFailureAbortsReader(t *testing.T) {
	p := mustNew(t, WithPreprocessor("bad", PreprocessorFunc(func(string) (string, error) {
		return "", errors.New("boom")
	})))
	_, err := p.ConvertReader(strings.NewReader("<p>x</p>"), StreamInfo{Extension: ".html"})
	if !IsHookFailure(err) {
		t.Fatalf("err = %v, want a hook failure", err)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"toc range reversed", WithTOCLevels(3, 2)},
		{"toc level too deep", WithTOCLevels(2, 7)},
		{"unknown format", WithOutputFormat("pdf")},
		{"unknown highlight style", WithHighlightStyle("no-such-style")},
		{"bad element name", WithElementMap(ElementMap{"Bad Tag": "x"})},
		{"empty element label", WithElementMap(ElementMap{"callout": ""})},
		{"bad shortcode", WithShortcodes(ShortcodeMap{"[[x]]": "y"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestDataURIs(t *testing.T) {
	src := "data:image/png;base64," + strings.Repeat("QUJD", 32)
	doc := `<p><img src="` + src + `" alt="x"></p>`

	if body := convertBody(t, mustNew(t), doc); body != "![x](data:image/png;base64,...)" {
		t.Errorf("truncated body = %q", body)
	}
	if body := convertBody(t, mustNew(t, WithKeepDataURIs(true)), doc); !strings.Contains(body, src) {
		t.Errorf("kept body = %q, want the full data URI", body)
	}
}

func TestConcurrentConversions(t *testing.T) {
	p := mustNew(t, WithShortcodes(ShortcodeMap{"n": "N"}))
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			doc := fmt.Sprintf("<h2>Doc %d</h2><ul><li>[[n]]</li></ul>", i)
			result, err := p.ConvertString(doc)
			if err != nil {
				return err
			}
			want := fmt.Sprintf("## Doc %d\n\n- N", i)
			if result.Body != want {
				return fmt.Errorf("body = %q, want %q", result.Body, want)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Error(err)
	}
}

func TestConvertMarkdown(t *testing.T) {
	p := mustNew(t, WithShortcodes(ShortcodeMap{"x": "X"}))
	result, err := p.ConvertMarkdown("---\ntitle: T\n---\n# Head\n\n## Sub\n\n```\n## not a heading\n```\n\nText [[x]]\n")
	if err != nil {
		t.Fatal(err)
	}
	if result.Title != "Head" {
		t.Errorf("Title = %q, want %q", result.Title, "Head")
	}
	if diff := cmp.Diff([]TOCEntry{{Level: 2, Text: "Sub", Anchor: "sub"}}, result.TOC); diff != "" {
		t.Errorf("TOC mismatch (-want +got):\n%s", diff)
	}
	want := "# Head\n\n## Sub\n\n```\n## not a heading\n```\n\nText X"
	if result.Body != want {
		t.Errorf("body = %q, want %q", result.Body, want)
	}
	if v, _ := result.Metadata.Get("title"); v != "T" {
		t.Errorf("title metadata = %q", v)
	}
}

func TestConverterAccepts(t *testing.T) {
	tests := []struct {
		name      string
		converter DocumentConverter
		info      StreamInfo
		want      bool
	}{
		{"html by ext", NewHTMLConverter(nil), StreamInfo{Extension: ".html"}, true},
		{"html by mime", NewHTMLConverter(nil), StreamInfo{MIMEType: "text/html; charset=utf-8"}, true},
		{"xhtml by mime", NewHTMLConverter(nil), StreamInfo{MIMEType: "application/xhtml+xml"}, true},
		{"html wrong ext", NewHTMLConverter(nil), StreamInfo{Extension: ".md"}, false},
		{"markdown md", NewMarkdownConverter(nil), StreamInfo{Extension: ".md"}, true},
		{"markdown txt", NewMarkdownConverter(nil), StreamInfo{Extension: ".txt"}, true},
		{"markdown plain mime", NewMarkdownConverter(nil), StreamInfo{MIMEType: "text/plain"}, true},
		{"markdown rejects html", NewMarkdownConverter(nil), StreamInfo{Extension: ".html", MIMEType: "text/plain"}, false},
		{"rss by ext", NewRSSConverter(nil), StreamInfo{Extension: ".rss"}, true},
		{"rss xml", NewRSSConverter(nil), StreamInfo{Extension: ".xml"}, true},
		{"rss atom mime", NewRSSConverter(nil), StreamInfo{MIMEType: "application/atom+xml"}, true},
		{"rss rejects xhtml", NewRSSConverter(nil), StreamInfo{Extension: ".xhtml", MIMEType: "text/xml"}, false},
		{"epub by ext", NewEpubConverter(nil), StreamInfo{Extension: ".epub"}, true},
		{"epub by mime", NewEpubConverter(nil), StreamInfo{MIMEType: "application/epub+zip"}, true},
		{"zip by ext", NewZipConverter(nil), StreamInfo{Extension: ".zip"}, true},
		{"zip wrong ext", NewZipConverter(nil), StreamInfo{Extension: ".epub"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.converter.Accepts(tt.info)
			if got != tt.want {
				t.Errorf("Accepts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name        string
		path        string
		mustInclude []string
		title       string
	}{
		{
			name:        "html",
			path:        write("page.html", "<html><head><title>Page</title></head><body><h2>Part</h2><p>Hello</p></body></html>"),
			mustInclude: []string{"## Part", "Hello"},
			title:       "Part",
		},
		{
			name:        "markdown",
			path:        write("notes.md", "# Notes\n\nPlain text"),
			mustInclude: []string{"# Notes", "Plain text"},
			title:       "Notes",
		},
	}

	p := mustNew(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ConvertFile(tt.path)
			if err != nil {
				t.Fatalf("ConvertFile(%s) error: %v", tt.path, err)
			}
			for _, s := range tt.mustInclude {
				if !strings.Contains(result.Body, s) {
					t.Errorf("ConvertFile(%s): expected output to contain %q\nGot:\n%s", tt.name, s, result.Body)
				}
			}
			if result.Title != tt.title {
				t.Errorf("Title = %q, want %q", result.Title, tt.title)
			}
		})
	}

	if _, err := p.ConvertFile(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("ConvertFile(missing) succeeded")
	}
}

func TestConvertReaderUnsupported(t *testing.T) {
	p := mustNew(t)
	_, err := p.ConvertReader(bytes.NewReader([]byte{0x00, 0x01}), StreamInfo{Extension: ".bin", MIMEType: "application/octet-stream"})
	if !IsUnsupportedFormat(err) {
		t.Errorf("err = %v, want UnsupportedFormatError", err)
	}
}

func TestConvertReaderCharset(t *testing.T) {
	p := mustNew(t)
	tests := []struct {
		name string
		data []byte
		info StreamInfo
	}{
		{"declared charset", []byte("<p>caf\xe9</p>"), StreamInfo{Extension: ".html", Charset: "windows-1252"}},
		{"meta charset", []byte(`<meta charset="iso-8859-1"><p>caf` + "\xe9" + `</p>`), StreamInfo{Extension: ".html"}},
		{"content type charset", []byte("<p>caf\xe9</p>"), StreamInfo{MIMEType: "text/html; charset=latin1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ConvertReader(bytes.NewReader(tt.data), tt.info)
			if err != nil {
				t.Fatal(err)
			}
			if result.Body != "café" {
				t.Errorf("body = %q, want %q", result.Body, "café")
			}
		})
	}
}

func buildZip(t *testing.T, files [][2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f[0])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(f[1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestConvertEpub(t *testing.T) {
	data := buildZip(t, [][2]string{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`},
		{"OEBPS/content.opf", `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>The Book</dc:title>
    <dc:creator>Ada</dc:creator>
    <dc:creator>Grace</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="c1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine><itemref idref="c1"/><itemref idref="css"/><itemref idref="c2"/></spine>
</package>`},
		{"OEBPS/ch1.xhtml", "<html><body><h2>One</h2><p>First chapter</p></body></html>"},
		{"OEBPS/ch2.xhtml", "<html><body><h2>Two</h2><ul><li>item</li></ul></body></html>"},
		{"OEBPS/style.css", "p { color: red }"},
	})

	p := mustNew(t)
	result, err := p.ConvertReader(bytes.NewReader(data), StreamInfo{Extension: ".epub"})
	if err != nil {
		t.Fatal(err)
	}
	want := "## One\n\nFirst chapter\n\n## Two\n\n- item"
	if result.Body != want {
		t.Errorf("body = %q, want %q", result.Body, want)
	}
	if result.Title != "The Book" {
		t.Errorf("Title = %q", result.Title)
	}
	wantMeta := map[string]string{"title": "The Book", "author": "Ada, Grace", "language": "en"}
	if diff := cmp.Diff(wantMeta, result.Metadata.Map()); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if len(result.TOC) != 2 {
		t.Errorf("TOC = %+v, want one entry per chapter", result.TOC)
	}
}

func TestConvertZip(t *testing.T) {
	data := buildZip(t, [][2]string{
		{"site/index.html", "<h1>Home</h1><p>Welcome</p>"},
		{"site/notes.md", "# Notes"},
		{"site/blob.bin", "\x00\x01\x02"},
	})

	p := mustNew(t)
	result, err := p.ConvertReader(bytes.NewReader(data), StreamInfo{Extension: ".zip", Filename: "site.zip"})
	if err != nil {
		t.Fatal(err)
	}
	want := "## File: site/index.html\n\n# Home\n\nWelcome\n\n## File: site/notes.md\n\n# Notes"
	if result.Body != want {
		t.Errorf("body = %q, want %q", result.Body, want)
	}
	if result.Title != "site.zip" {
		t.Errorf("Title = %q", result.Title)
	}
}

func TestConvertRSS(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0">
<channel>
  <title>Example Feed</title>
  <link>https://example.com</link>
  <description>Updates</description>
  <item>
    <title>First post</title>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <description><![CDATA[<p><strong>Bold</strong> news</p>]]></description>
  </item>
</channel>
</rss>`

	p := mustNew(t)
	result, err := p.ConvertReader(strings.NewReader(feed), StreamInfo{Extension: ".rss"})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"Updates", "## First post", "Published: Mon, 02 Jan 2006 15:04:05 GMT", "**Bold** news"} {
		if !strings.Contains(result.Body, s) {
			t.Errorf("body missing %q:\n%s", s, result.Body)
		}
	}
	if result.Title != "Example Feed" {
		t.Errorf("Title = %q", result.Title)
	}
	if v, _ := result.Metadata.Get("link"); v != "https://example.com" {
		t.Errorf("link metadata = %q", v)
	}
	if diff := cmp.Diff([]TOCEntry{{Level: 2, Text: "First post", Anchor: "first-post"}}, result.TOC); diff != "" {
		t.Errorf("TOC mismatch (-want +got):\n%s", diff)
	}
}
