package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/nicholasgasior/htmldown"
	"github.com/nicholasgasior/htmldown/internal/config"
	"github.com/nicholasgasior/htmldown/internal/logger"
)

func run(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	level := charmlog.InfoLevel
	if cfg.Verbose {
		level = charmlog.DebugLevel
	}
	lg := logger.NewWithLevel(cmd.ErrOrStderr(), level)
	if used := v.ConfigFileUsed(); used != "" {
		lg.ConfigLoaded(used)
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	p, err := htmldown.New(append(opts, htmldown.WithLogger(lg.Logger))...)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	outDir, _ := cmd.Flags().GetString("out-dir")
	if output != "" && outDir != "" {
		return fmt.Errorf("--output and --out-dir are mutually exclusive")
	}
	if output != "" && len(args) > 1 {
		return fmt.Errorf("--output takes a single source; use --out-dir for %d sources", len(args))
	}

	if len(args) == 0 {
		text, err := convertStdin(p, cmd.InOrStdin(), stdinInfo(cmd))
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), output, text)
	}

	b := &batch{
		pipeline: p,
		log:      lg,
		outDir:   outDir,
		output:   output,
		ext:      outputExtension(cfg.Format),
		workers:  cfg.Concurrency,
	}
	return b.run(cmd.Context(), cmd.OutOrStdout(), args)
}

func stdinInfo(cmd *cobra.Command) htmldown.StreamInfo {
	ext, _ := cmd.Flags().GetString("extension")
	mime, _ := cmd.Flags().GetString("mime-type")
	cs, _ := cmd.Flags().GetString("charset")

	if ext != "" {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
	}
	if ext == "" && mime == "" {
		ext = ".html"
	}
	return htmldown.StreamInfo{Extension: ext, MIMEType: mime, Charset: cs}
}

func convertStdin(p *htmldown.Pipeline, r io.Reader, info htmldown.StreamInfo) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	doc, err := p.ConvertReader(bytes.NewReader(data), info)
	if err != nil {
		return "", err
	}
	return p.Assemble(doc)
}

// batch converts several sources concurrently. Every source has its own
// conversion; the pipeline is shared read-only.
type batch struct {
	pipeline *htmldown.Pipeline
	log      *logger.Logger
	outDir   string
	output   string
	ext      string
	workers  int
}

func (b *batch) run(ctx context.Context, stdout io.Writer, sources []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	b.log.ConversionStarted(len(sources), b.workers)

	if b.outDir != "" {
		if err := os.MkdirAll(b.outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	results := make([]string, len(sources))
	failed := make([]error, len(sources))
	dests := b.destinations(sources)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			began := time.Now()
			text, err := b.convert(src)
			if err != nil {
				b.log.ConversionFailed(src, err)
				failed[i] = err
				return nil
			}

			dest := dests[i]
			if dest == "" {
				results[i] = text
				b.log.DocumentConverted(src, "stdout", time.Since(began))
				return nil
			}
			if err := emit(nil, dest, text); err != nil {
				return err
			}
			b.log.DocumentConverted(src, dest, time.Since(began))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var errs int
	for i, text := range results {
		if failed[i] != nil {
			errs++
			continue
		}
		if text != "" {
			if err := emit(stdout, "", text); err != nil {
				return err
			}
		}
	}
	b.log.ConversionCompleted(len(sources)-errs, errs, time.Since(start))

	if errs > 0 {
		if len(sources) == 1 {
			return failed[0]
		}
		return fmt.Errorf("%d of %d sources failed", errs, len(sources))
	}
	return nil
}

func (b *batch) convert(source string) (string, error) {
	doc, err := b.pipeline.Convert(source)
	if err != nil {
		return "", err
	}
	return b.pipeline.Assemble(doc)
}

// destinations returns the output path of every source, "" for stdout.
// Sources sharing a stem under --out-dir get -1, -2 suffixes in argument
// order.
func (b *batch) destinations(sources []string) []string {
	dests := make([]string, len(sources))
	used := make(map[string]bool)
	for i, src := range sources {
		switch {
		case b.output != "":
			dests[i] = b.output
		case b.outDir != "":
			stem := outputName(src)
			name := stem
			for n := 1; used[name]; n++ {
				name = stem + "-" + strconv.Itoa(n)
			}
			used[name] = true
			dests[i] = filepath.Join(b.outDir, name+b.ext)
		}
	}
	return dests
}

// outputName derives a file stem from a path or URL.
func outputName(source string) string {
	base := filepath.Base(source)
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		base = path.Base(u.Path)
		if base == "/" || base == "." || base == "" {
			base = u.Hostname()
		}
	}
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return "index"
}

func outputExtension(format string) string {
	if format == string(htmldown.FormatHTML) {
		return ".html"
	}
	return ".md"
}

// emit writes text to dest, or to w when dest is empty. A trailing newline
// is added when missing.
func emit(w io.Writer, dest, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if dest == "" {
		_, err := io.WriteString(w, text)
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(dest, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
