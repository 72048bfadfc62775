package htmldown

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnclosedFrontMatter is reported when a document opens a front matter
// block that is never closed. The document is then treated as all body.
var ErrUnclosedFrontMatter = errors.New("front matter block is not closed")

// Metadata is an ordered string mapping. The zero value is empty and ready
// to use.
type Metadata struct {
	keys   []string
	values map[string]string
}

// Set stores value under key. An existing key keeps its position.
func (m *Metadata) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m Metadata) Len() int { return len(m.keys) }

// Map returns an unordered copy of the entries.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.keys))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Merge returns a new mapping holding m with overrides applied on top.
// Override values win on collision; new keys follow in override order.
func (m Metadata) Merge(overrides Metadata) Metadata {
	var out Metadata
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	for _, k := range overrides.keys {
		out.Set(k, overrides.values[k])
	}
	return out
}

// ExtractFrontMatter splits a leading front matter block from raw. The
// block opens with a "---" line and closes with a "---" or "..." line.
//
// Without an opening line the metadata is empty and the whole input is the
// body. An opening line without a close yields the same result together
// with ErrUnclosedFrontMatter, which callers may log and otherwise ignore.
func ExtractFrontMatter(raw string) (Metadata, string, error) {
	text := strings.TrimPrefix(raw, "\ufeff")

	first, rest, ok := strings.Cut(text, "\n")
	if !isDelimiter(first, "---") {
		return Metadata{}, raw, nil
	}
	if !ok {
		return Metadata{}, raw, ErrUnclosedFrontMatter
	}

	offset := 0
	remaining := rest
	for {
		line, next, more := strings.Cut(remaining, "\n")
		if isDelimiter(line, "---") || isDelimiter(line, "...") {
			body := ""
			if more {
				body = next
			}
			return parseFrontMatter(rest[:offset]), body, nil
		}
		if !more {
			return Metadata{}, raw, ErrUnclosedFrontMatter
		}
		offset += len(line) + 1
		remaining = next
	}
}

func isDelimiter(line, delim string) bool {
	return strings.TrimRight(line, " \t\r") == delim
}

// parseFrontMatter reads a flat YAML mapping. Text that is not a mapping
// is read line by line as key: value pairs.
func parseFrontMatter(block string) Metadata {
	var md Metadata
	if strings.TrimSpace(block) == "" {
		return md
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err == nil &&
		len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode {
		mapping := doc.Content[0]
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			md.Set(mapping.Content[i].Value, scalarText(mapping.Content[i+1]))
		}
		return md
	}

	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		md.Set(key, strings.Trim(strings.TrimSpace(value), `"'`))
	}
	return md
}

// scalarText returns a scalar verbatim and re-encodes anything else as
// flow-style YAML.
func scalarText(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	n.Style = yaml.FlowStyle
	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// frontMatterBlock renders md as a YAML front matter block. Every value is
// written as a string so the block reads back unchanged.
func frontMatterBlock(md Metadata) (string, error) {
	if md.Len() == 0 {
		return "", nil
	}
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range md.Keys() {
		v, _ := md.Get(k)
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v},
		)
	}
	out, err := yaml.Marshal(mapping)
	if err != nil {
		return "", err
	}
	return "---\n" + string(out) + "---\n", nil
}
