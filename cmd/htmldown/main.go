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

// Command htmldown converts HTML documents to Markdown or styled HTML.
package main

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nicholasgasior/htmldown"
	"github.com/nicholasgasior/htmldown/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:   "htmldown [flags] [sources...]",
		Short: "Convert HTML documents to Markdown",
		Long: `htmldown converts HTML into Markdown. A structural pass maps the document
tree to flat markup; ordered rewrite stages then turn lists, tables, forms,
styled containers and custom elements into Markdown. Front matter is carried
over and the result is assembled with an optional template.

Sources are file paths or http(s) URLs. Without sources the document is read
from stdin.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			config.Setup(v, cfgFile)
			return config.Read(v, cfgFile != "")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "config file (default: ./htmldown.yaml or ~/.config/htmldown/config.yaml)")
	f.StringP("output", "o", "", "output file for a single source (default: stdout)")
	f.String("out-dir", "", "directory for converted files, one per source")
	f.StringP("extension", "x", "", "file extension hint for stdin")
	f.StringP("mime-type", "m", "", "MIME type hint for stdin")
	f.StringP("charset", "c", "", "charset hint for stdin")

	f.Bool(config.KeyNoLinks, false, "render links as their text")
	f.Bool(config.KeyNoImages, false, "render images as their alt text")
	f.Bool(config.KeyNoEmphasis, false, "drop emphasis markers")
	f.Bool(config.KeyNoTables, false, "flatten tables to text")
	f.Bool(config.KeyNoAnchors, false, "drop in-page anchors")
	f.Bool(config.KeyNoBlockquotes, false, "render blockquotes as plain paragraphs")
	f.Uint(config.KeyWrap, 0, "wrap paragraphs at this width (0 disables)")
	f.Int(config.KeyTOCMin, 2, "shallowest heading level in the table of contents")
	f.Int(config.KeyTOCMax, 3, "deepest heading level in the table of contents")
	f.StringArray(config.KeyElements, nil, "map a custom element to a classed container (tag:class)")
	f.StringArray(config.KeyShortcodes, nil, "replace [[name]] with text (name:text)")
	f.StringArray(config.KeyMetadata, nil, "set or override a metadata field (key:value)")
	f.StringArray(config.KeyHooks, nil, "pre-process each document with a command (stdin to stdout)")
	f.String(config.KeyTemplate, "", "template file with {{title}}, {{metadata}} and {{content}}")
	f.String(config.KeyStylesheet, "", "CSS file added to HTML output")
	f.String(config.KeyHighlightStyle, htmldown.DefaultHighlightStyle, "syntax highlighting style for HTML output")
	f.String(config.KeyFormat, string(htmldown.FormatMarkdown), "output format: markdown or html")
	f.Bool(config.KeyKeepDataURIs, false, "keep full base64-encoded data URIs")
	f.IntP(config.KeyConcurrency, "j", runtime.NumCPU(), "number of sources converted at once")
	f.BoolP(config.KeyVerbose, "v", false, "log debug output")

	_ = v.BindPFlags(f)
	return cmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
