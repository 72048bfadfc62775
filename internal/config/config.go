// Package config loads htmldown settings from flags, environment and a
// YAML file, and turns them into pipeline options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/nicholasgasior/htmldown"
	"github.com/nicholasgasior/htmldown/internal/hooks"
)

// Setting keys. Flags of the same name bind to them.
const (
	KeyNoLinks        = "no-links"
	KeyNoImages       = "no-images"
	KeyNoEmphasis     = "no-emphasis"
	KeyNoTables       = "no-tables"
	KeyNoAnchors      = "no-anchors"
	KeyNoBlockquotes  = "no-blockquotes"
	KeyWrap           = "wrap"
	KeyTOCMin         = "toc-min"
	KeyTOCMax         = "toc-max"
	KeyElements       = "element"
	KeyShortcodes     = "shortcode"
	KeyMetadata       = "meta"
	KeyTemplate       = "template"
	KeyStylesheet     = "stylesheet"
	KeyHighlightStyle = "highlight-style"
	KeyFormat         = "format"
	KeyKeepDataURIs   = "keep-data-uris"
	KeyHooks          = "hook"
	KeyConcurrency    = "concurrency"
	KeyVerbose        = "verbose"
)

// Config is the resolved configuration of one CLI run.
type Config struct {
	NoLinks       bool
	NoImages      bool
	NoEmphasis    bool
	NoTables      bool
	NoAnchors     bool
	NoBlockquotes bool
	Wrap          uint

	TOCMin int
	TOCMax int

	Elements   []string
	Shortcodes []string
	Metadata   []string
	Hooks      []string

	// Template and Stylesheet are file paths.
	Template       string
	Stylesheet     string
	HighlightStyle string
	Format         string
	KeepDataURIs   bool

	Concurrency int
	Verbose     bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTOCMin, 2)
	v.SetDefault(KeyTOCMax, 3)
	v.SetDefault(KeyHighlightStyle, htmldown.DefaultHighlightStyle)
	v.SetDefault(KeyFormat, string(htmldown.FormatMarkdown))
	v.SetDefault(KeyConcurrency, runtime.NumCPU())
}

// Setup points v at the config file and the HTMLDOWN_ environment. An
// empty path searches ./htmldown.yaml and ~/.config/htmldown/config.yaml.
func Setup(v *viper.Viper, path string) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("htmldown")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "htmldown"))
		}
	}

	v.SetEnvPrefix("HTMLDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Read loads the config file. A missing file is not an error unless it was
// named explicitly.
func Read(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok && !explicit {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

// Load resolves the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		NoLinks:        v.GetBool(KeyNoLinks),
		NoImages:       v.GetBool(KeyNoImages),
		NoEmphasis:     v.GetBool(KeyNoEmphasis),
		NoTables:       v.GetBool(KeyNoTables),
		NoAnchors:      v.GetBool(KeyNoAnchors),
		NoBlockquotes:  v.GetBool(KeyNoBlockquotes),
		Wrap:           v.GetUint(KeyWrap),
		TOCMin:         v.GetInt(KeyTOCMin),
		TOCMax:         v.GetInt(KeyTOCMax),
		Elements:       pairs(v, KeyElements),
		Shortcodes:     pairs(v, KeyShortcodes),
		Metadata:       pairs(v, KeyMetadata),
		Hooks:          v.GetStringSlice(KeyHooks),
		Template:       v.GetString(KeyTemplate),
		Stylesheet:     v.GetString(KeyStylesheet),
		HighlightStyle: v.GetString(KeyHighlightStyle),
		Format:         strings.ToLower(v.GetString(KeyFormat)),
		KeepDataURIs:   v.GetBool(KeyKeepDataURIs),
		Concurrency:    v.GetInt(KeyConcurrency),
		Verbose:        v.GetBool(KeyVerbose),
	}
	if c.Concurrency < 1 {
		return Config{}, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return c, nil
}

// pairs reads a key:value list. A YAML mapping is accepted too and is
// flattened in key order.
func pairs(v *viper.Viper, key string) []string {
	if m, ok := v.Get(key).(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = fmt.Sprintf("%s:%v", k, m[k])
		}
		return out
	}
	return v.GetStringSlice(key)
}

// Options translates c into pipeline options. Malformed pairs and
// unreadable files are reported before any document is processed.
func (c Config) Options() ([]htmldown.Option, error) {
	elements, err := htmldown.ParseElementMap(c.Elements)
	if err != nil {
		return nil, err
	}
	shortcodes, err := htmldown.ParseShortcodes(c.Shortcodes)
	if err != nil {
		return nil, err
	}
	meta, err := htmldown.ParseMetadata(c.Metadata)
	if err != nil {
		return nil, err
	}

	cfg := htmldown.ConversionConfig{
		PreserveLinks:       !c.NoLinks,
		PreserveImages:      !c.NoImages,
		PreserveEmphasis:    !c.NoEmphasis,
		PreserveTables:      !c.NoTables,
		PreserveAnchors:     !c.NoAnchors,
		PreserveBlockquotes: !c.NoBlockquotes,
		WrapWidth:           c.Wrap,
	}

	opts := []htmldown.Option{
		htmldown.WithConfig(cfg),
		htmldown.WithElementMap(elements),
		htmldown.WithShortcodes(shortcodes),
		htmldown.WithMetadata(meta),
		htmldown.WithTOCLevels(c.TOCMin, c.TOCMax),
		htmldown.WithOutputFormat(htmldown.OutputFormat(c.Format)),
		htmldown.WithHighlightStyle(c.HighlightStyle),
		htmldown.WithKeepDataURIs(c.KeepDataURIs),
	}

	if c.Template != "" {
		data, err := os.ReadFile(c.Template)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		opts = append(opts, htmldown.WithTemplate(string(data)))
	}
	if c.Stylesheet != "" {
		data, err := os.ReadFile(c.Stylesheet)
		if err != nil {
			return nil, fmt.Errorf("read stylesheet: %w", err)
		}
		opts = append(opts, htmldown.WithStylesheet(string(data)))
	}

	for _, line := range c.Hooks {
		cmd, err := hooks.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("hook %q: %w", line, err)
		}
		opts = append(opts, htmldown.WithPreprocessor(cmd.String(), cmd))
	}
	return opts, nil
}
