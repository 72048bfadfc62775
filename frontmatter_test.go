package htmldown

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKeys []string
		wantMeta map[string]string
		wantBody string
		wantErr  error
	}{
		{
			name:     "title and author",
			input:    "---\ntitle: X\nauthor: Y\n---\nBody\n---\nmore",
			wantKeys: []string{"title", "author"},
			wantMeta: map[string]string{"title": "X", "author": "Y"},
			wantBody: "Body\n---\nmore",
		},
		{
			name:     "dots close the block",
			input:    "---\ntitle: Demo\n...\n# Hi",
			wantKeys: []string{"title"},
			wantMeta: map[string]string{"title": "Demo"},
			wantBody: "# Hi",
		},
		{
			name:     "no front matter",
			input:    "# Hi\n---\n",
			wantMeta: map[string]string{},
			wantBody: "# Hi\n---\n",
		},
		{
			name:     "unclosed block",
			input:    "---\ntitle: X\n# Hi",
			wantMeta: map[string]string{},
			wantBody: "---\ntitle: X\n# Hi",
			wantErr:  ErrUnclosedFrontMatter,
		},
		{
			name:     "byte order mark",
			input:    "\ufeff---\ntitle: BOM\n---\nbody",
			wantKeys: []string{"title"},
			wantMeta: map[string]string{"title": "BOM"},
			wantBody: "body",
		},
		{
			name:     "quoted and non-scalar values",
			input:    "---\ntitle: \"A: B\"\ntags: [go, html]\n---\n",
			wantKeys: []string{"title", "tags"},
			wantMeta: map[string]string{"title": "A: B", "tags": "[go, html]"},
			wantBody: "",
		},
		{
			name:     "not yaml falls back to lines",
			input:    "---\ntitle: a: b: c\n- stray\n---\nx",
			wantKeys: []string{"title"},
			wantMeta: map[string]string{"title": "a: b: c"},
			wantBody: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body, err := ExtractFrontMatter(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.wantMeta, meta.Map()); diff != "" {
				t.Errorf("metadata mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantKeys, meta.Keys()); diff != "" {
				t.Errorf("key order mismatch (-want +got):\n%s", diff)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestMetadataMerge(t *testing.T) {
	var base, overrides Metadata
	base.Set("title", "Old")
	base.Set("author", "Ada")
	overrides.Set("title", "New")
	overrides.Set("lang", "en")

	merged := base.Merge(overrides)
	if diff := cmp.Diff([]string{"title", "author", "lang"}, merged.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := merged.Get("title"); v != "New" {
		t.Errorf("title = %q, want override value", v)
	}
	if v, _ := base.Get("title"); v != "Old" {
		t.Errorf("Merge modified its receiver: title = %q", v)
	}
}

func TestFrontMatterRoundTrip(t *testing.T) {
	var md Metadata
	md.Set("title", "X")
	md.Set("author", "Y")
	md.Set("year", "2024")
	md.Set("note", "a: b")

	block, err := frontMatterBlock(md)
	if err != nil {
		t.Fatal(err)
	}
	got, body, err := ExtractFrontMatter(block + "Body")
	if err != nil {
		t.Fatal(err)
	}
	if body != "Body" {
		t.Errorf("body = %q, want %q", body, "Body")
	}
	if diff := cmp.Diff(md.Map(), got.Map()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(md.Keys(), got.Keys()); diff != "" {
		t.Errorf("round trip order mismatch (-want +got):\n%s", diff)
	}
}

func TestFrontMatterBlockEmpty(t *testing.T) {
	block, err := frontMatterBlock(Metadata{})
	if err != nil || block != "" {
		t.Errorf("frontMatterBlock(empty) = %q, %v", block, err)
	}
}
