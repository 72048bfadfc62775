package htmldown

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseElementMap(t *testing.T) {
	m, err := ParseElementMap([]string{"callout:note", "Warning-Box : alert"})
	if err != nil {
		t.Fatal(err)
	}
	want := ElementMap{"callout": "note", "warning-box": "alert"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("ParseElementMap mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"callout", "warning-box"}, m.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShortcodes(t *testing.T) {
	m, err := ParseShortcodes([]string{"[[year]]:2024", "url:https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	want := ShortcodeMap{"year": "2024", "url": "https://example.com"}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("ParseShortcodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMetadata(t *testing.T) {
	md, err := ParseMetadata([]string{"title:Hello: World", "author:Ada"})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := md.Get("title"); v != "Hello: World" {
		t.Errorf("title = %q", v)
	}
	if diff := cmp.Diff([]string{"title", "author"}, md.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSpecErrors(t *testing.T) {
	tests := []struct {
		name  string
		parse func() error
		kind  string
	}{
		{"element without separator", func() error { _, err := ParseElementMap([]string{"callout"}); return err }, "element"},
		{"element bad tag", func() error { _, err := ParseElementMap([]string{"1x:note"}); return err }, "element"},
		{"element empty label", func() error { _, err := ParseElementMap([]string{"callout:"}); return err }, "element"},
		{"shortcode without separator", func() error { _, err := ParseShortcodes([]string{"year"}); return err }, "shortcode"},
		{"shortcode empty token", func() error { _, err := ParseShortcodes([]string{"[[]]:x"}); return err }, "shortcode"},
		{"metadata empty key", func() error { _, err := ParseMetadata([]string{" :x"}); return err }, "metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse()
			var specErr *SpecError
			if !errors.As(err, &specErr) {
				t.Fatalf("err = %v, want *SpecError", err)
			}
			if specErr.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", specErr.Kind, tt.kind)
			}
		})
	}
}
