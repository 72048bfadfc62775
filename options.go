package htmldown

import "github.com/charmbracelet/log"

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig sets the structural conversion toggles.
func WithConfig(cfg ConversionConfig) Option {
	return func(p *Pipeline) {
		p.config = cfg
	}
}

// WithElementMap relabels the mapped tags into classed containers.
func WithElementMap(m ElementMap) Option {
	return func(p *Pipeline) {
		p.elements = make(ElementMap, len(m))
		for k, v := range m {
			p.elements[k] = v
		}
	}
}

// WithShortcodes sets the [[name]] substitutions.
func WithShortcodes(m ShortcodeMap) Option {
	return func(p *Pipeline) {
		p.shortcodes = make(ShortcodeMap, len(m))
		for k, v := range m {
			p.shortcodes[k] = v
		}
	}
}

// WithPreprocessor appends a hook that runs on the raw document. Hooks run
// in the order they are added.
func WithPreprocessor(name string, h Preprocessor) Option {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, namedPreprocessor{name: name, hook: h})
	}
}

// WithMetadata sets metadata that overrides extracted front matter.
func WithMetadata(md Metadata) Option {
	return func(p *Pipeline) {
		p.overrides = Metadata{}.Merge(md)
	}
}

// WithTOCLevels limits table of contents entries to headings from level
// first to level last (default 2 to 3).
func WithTOCLevels(first, last int) Option {
	return func(p *Pipeline) {
		p.tocMin, p.tocMax = first, last
	}
}

// WithOutputFormat selects what Assemble produces.
func WithOutputFormat(f OutputFormat) Option {
	return func(p *Pipeline) {
		p.format = f
	}
}

// WithTemplate sets a template holding {{title}}, {{metadata}} and
// {{content}} placeholders.
func WithTemplate(t string) Option {
	return func(p *Pipeline) {
		p.template = t
	}
}

// WithStylesheet sets CSS for HTML output.
func WithStylesheet(css string) Option {
	return func(p *Pipeline) {
		p.stylesheet = css
	}
}

// WithHighlightStyle selects the syntax highlighting style for HTML output.
func WithHighlightStyle(name string) Option {
	return func(p *Pipeline) {
		p.highlightStyle = name
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithKeepDataURIs configures whether to keep full data URIs in output
// (default: false, which truncates them to data:mime/type;base64...).
func WithKeepDataURIs(keep bool) Option {
	return func(p *Pipeline) {
		p.keepDataURIs = keep
	}
}
