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

// Package htmldown converts HTML into Markdown through a structural pass
// followed by an ordered list of text rewrite stages, and assembles the
// result with its front matter into a final document.
package htmldown

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// PrioritySpecific is for format-specific converters (EPUB, feeds, Markdown).
	PrioritySpecific = 0.0
	// PriorityGeneric is for fallback converters (HTML, ZIP).
	PriorityGeneric = 10.0
)

type registeredConverter struct {
	converter DocumentConverter
	priority  float64
	name      string
}

// Pipeline is the HTML to Markdown conversion engine. It is immutable once
// New returns and safe for concurrent use, except that RegisterConverter
// must not run concurrently with conversions.
type Pipeline struct {
	converters []registeredConverter

	config     ConversionConfig
	elements   ElementMap
	shortcodes ShortcodeMap
	hooks      []namedPreprocessor
	overrides  Metadata
	tocMin     int
	tocMax     int

	keepDataURIs   bool
	format         OutputFormat
	template       string
	stylesheet     string
	highlightStyle string
	logger         *log.Logger

	structural *structural
	stages     []RewriteStage
	renderer   *htmlRenderer
}

// New creates a Pipeline with the given options. Invalid options are
// reported here, before any document is processed.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config:         DefaultConfig(),
		tocMin:         2,
		tocMax:         3,
		format:         FormatMarkdown,
		highlightStyle: DefaultHighlightStyle,
		logger:         log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	p.structural = newStructural(p.config, p.elements, p.tocMin, p.tocMax, p.logger)
	p.stages = buildStages(p.elements, p.shortcodes)
	p.renderer = newHTMLRenderer(p.highlightStyle)
	p.enableBuiltins()
	return p, nil
}

func (p *Pipeline) validate() error {
	if p.tocMin < 1 || p.tocMax > 6 || p.tocMin > p.tocMax {
		return fmt.Errorf("invalid table of contents levels %d-%d", p.tocMin, p.tocMax)
	}
	switch p.format {
	case FormatMarkdown, FormatHTML:
	default:
		return fmt.Errorf("unknown output format %q", p.format)
	}
	if _, ok := styles.Registry[p.highlightStyle]; !ok {
		return fmt.Errorf("unknown highlight style %q", p.highlightStyle)
	}
	for name, label := range p.elements {
		if !reTagName.MatchString(name) || label == "" {
			return &SpecError{Kind: "element", Spec: name + ":" + label, Reason: "not a valid mapping"}
		}
	}
	for name := range p.shortcodes {
		if name == "" || strings.ContainsAny(name, "[]") {
			return &SpecError{Kind: "shortcode", Spec: name, Reason: "not a valid token"}
		}
	}
	return nil
}

// RegisterConverter adds a custom converter with the given priority.
// Lower priority values are tried first.
func (p *Pipeline) RegisterConverter(name string, c DocumentConverter, priority float64) {
	p.converters = append(p.converters, registeredConverter{
		converter: c,
		priority:  priority,
		name:      name,
	})
	sort.SliceStable(p.converters, func(i, j int) bool {
		return p.converters[i].priority < p.converters[j].priority
	})
}

// Stages returns the rewrite stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return names
}

// ConvertString runs an HTML document through the whole pipeline: hooks,
// front matter extraction, the structural pass and the rewrite stages.
func (p *Pipeline) ConvertString(document string) (*ConvertedDocument, error) {
	raw, err := runHooks(p.hooks, document)
	if err != nil {
		return nil, err
	}

	meta, body, err := ExtractFrontMatter(raw)
	if err != nil {
		p.logger.Debug("front matter ignored", "err", err)
	}

	res := p.structural.convert(body)
	return &ConvertedDocument{
		Title:    res.Title,
		Body:     p.rewrite(res.Markdown),
		Metadata: meta.Merge(p.overrides),
		TOC:      res.TOC,
	}, nil
}

// ConvertMarkdown runs a Markdown document through hooks, front matter
// extraction and shortcode expansion. The structural pass is skipped.
func (p *Pipeline) ConvertMarkdown(document string) (*ConvertedDocument, error) {
	raw, err := runHooks(p.hooks, document)
	if err != nil {
		return nil, err
	}

	meta, body, err := ExtractFrontMatter(raw)
	if err != nil {
		p.logger.Debug("front matter ignored", "err", err)
	}

	body = expandShortcodes(p.shortcodes)(body)
	body = wrapParagraphs(normalizeOutput(body), p.config.WrapWidth)
	title, toc := markdownOutline(body, p.tocMin, p.tocMax)
	return &ConvertedDocument{
		Title:    title,
		Body:     body,
		Metadata: meta.Merge(p.overrides),
		TOC:      toc,
	}, nil
}

// Process converts an HTML document and assembles the final output.
func (p *Pipeline) Process(document string) (string, error) {
	doc, err := p.ConvertString(document)
	if err != nil {
		return "", err
	}
	return p.Assemble(doc)
}

// rewrite applies the rewrite stages and the output clean-up.
func (p *Pipeline) rewrite(text string) string {
	for _, st := range p.stages {
		start := time.Now()
		text = st.Apply(text)
		p.logger.Debug("rewrite stage", "stage", st.Name, "elapsed", time.Since(start))
	}
	text = normalizeOutput(unescapeCodeSpans(text))
	if !p.keepDataURIs {
		text = truncateDataURIs(text)
	}
	return wrapParagraphs(text, p.config.WrapWidth)
}

// Convert auto-detects the source type (file path or URL) and converts it.
func (p *Pipeline) Convert(source string) (*ConvertedDocument, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.ConvertURL(source)
	}
	return p.ConvertFile(source)
}

// ConvertFile converts a local file.
func (p *Pipeline) ConvertFile(path string) (*ConvertedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	info := StreamInfo{
		Extension: ext,
		Filename:  filepath.Base(path),
		LocalPath: path,
	}

	info.MIMEType = detectMIMEType(f, ext)

	// Reset after MIME detection
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	return p.ConvertReader(f, info)
}

// ConvertReader converts a stream using the provided StreamInfo.
func (p *Pipeline) ConvertReader(r io.ReadSeeker, info StreamInfo) (*ConvertedDocument, error) {
	var failedAttempts []FailedConversionAttempt

	for _, rc := range p.converters {
		if !rc.converter.Accepts(info) {
			continue
		}

		// Reset reader position before conversion
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}

		doc, err := rc.converter.Convert(r, info)
		if err != nil {
			// Hook failures abort instead of falling through to the next converter.
			if IsHookFailure(err) {
				return nil, err
			}
			failedAttempts = append(failedAttempts, FailedConversionAttempt{
				Converter: rc.name,
				Err:       err,
			})
			continue
		}

		doc.Body = normalizeOutput(doc.Body)
		return doc, nil
	}

	if len(failedAttempts) > 0 {
		return nil, &ConversionError{Attempts: failedAttempts}
	}

	return nil, &UnsupportedFormatError{
		Extension: info.Extension,
		MIMEType:  info.MIMEType,
	}
}

// ConvertURL fetches a URL and converts the response.
func (p *Pipeline) ConvertURL(url string) (*ConvertedDocument, error) {
	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch URL: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	reader := bytes.NewReader(data)
	info := StreamInfo{URL: url}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		parts := strings.Split(ct, ";")
		info.MIMEType = strings.TrimSpace(parts[0])
		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "charset=") {
				info.Charset = strings.Trim(strings.TrimPrefix(part, "charset="), `"'`)
			}
		}
	}

	urlPath := strings.Split(url, "?")[0]
	info.Extension = strings.ToLower(filepath.Ext(urlPath))
	if info.Extension != "" {
		info.Filename = filepath.Base(urlPath)
	}

	if info.MIMEType == "" {
		info.MIMEType = detectMIMEType(reader, info.Extension)
		reader.Seek(0, io.SeekStart)
	}

	return p.ConvertReader(reader, info)
}

// enableBuiltins registers all built-in converters.
func (p *Pipeline) enableBuiltins() {
	p.RegisterConverter("epub", NewEpubConverter(p), PrioritySpecific)
	p.RegisterConverter("rss", NewRSSConverter(p), PrioritySpecific)
	p.RegisterConverter("markdown", NewMarkdownConverter(p), PrioritySpecific)

	p.RegisterConverter("html", NewHTMLConverter(p), PriorityGeneric)
	p.RegisterConverter("zip", NewZipConverter(p), PriorityGeneric)
}

// detectMIMEType detects the MIME type from content and extension.
func detectMIMEType(r io.ReadSeeker, ext string) string {
	mtype, err := mimetype.DetectReader(r)
	if err == nil && mtype.String() != "application/octet-stream" {
		return mtype.String()
	}
	return mimeFromExtension(ext)
}

// mimeFromExtension returns a MIME type for the extensions the built-in
// converters know.
func mimeFromExtension(ext string) string {
	extMap := map[string]string{
		".html":     "text/html",
		".htm":      "text/html",
		".xhtml":    "application/xhtml+xml",
		".txt":      "text/plain",
		".md":       "text/markdown",
		".markdown": "text/markdown",
		".xml":      "text/xml",
		".rss":      "application/rss+xml",
		".atom":     "application/atom+xml",
		".epub":     "application/epub+zip",
		".zip":      "application/zip",
	}
	if m, ok := extMap[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
