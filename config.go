package htmldown

import (
	"regexp"
	"sort"
	"strings"
)

// ConversionConfig toggles which constructs survive the structural pass.
// A zero WrapWidth disables line wrapping.
type ConversionConfig struct {
	PreserveLinks       bool
	PreserveImages      bool
	PreserveEmphasis    bool
	PreserveTables      bool
	PreserveAnchors     bool
	PreserveBlockquotes bool
	WrapWidth           uint
}

// DefaultConfig keeps every construct and does not wrap.
func DefaultConfig() ConversionConfig {
	return ConversionConfig{
		PreserveLinks:       true,
		PreserveImages:      true,
		PreserveEmphasis:    true,
		PreserveTables:      true,
		PreserveAnchors:     true,
		PreserveBlockquotes: true,
	}
}

// ElementMap maps a tag name to the class label of the container it is
// relabeled to.
type ElementMap map[string]string

// Names returns the mapped tag names in sorted order.
func (m ElementMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShortcodeMap maps a shortcode name to its literal replacement. A key
// "name" addresses the token [[name]].
type ShortcodeMap map[string]string

var reTagName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ParseElementMap parses element:class pairs.
func ParseElementMap(specs []string) (ElementMap, error) {
	m := make(ElementMap, len(specs))
	for _, spec := range specs {
		key, value, err := splitSpec("element", spec)
		if err != nil {
			return nil, err
		}
		key = strings.ToLower(key)
		if !reTagName.MatchString(key) {
			return nil, &SpecError{Kind: "element", Spec: spec, Reason: "not a valid tag name"}
		}
		if value == "" {
			return nil, &SpecError{Kind: "element", Spec: spec, Reason: "empty class label"}
		}
		m[key] = value
	}
	return m, nil
}

// ParseShortcodes parses token:replacement pairs. The token may
// be given with or without its surrounding double brackets.
func ParseShortcodes(specs []string) (ShortcodeMap, error) {
	m := make(ShortcodeMap, len(specs))
	for _, spec := range specs {
		key, value, err := splitSpec("shortcode", spec)
		if err != nil {
			return nil, err
		}
		key = strings.TrimSuffix(strings.TrimPrefix(key, "[["), "]]")
		if key == "" || strings.ContainsAny(key, "[]") {
			return nil, &SpecError{Kind: "shortcode", Spec: spec, Reason: "not a valid token"}
		}
		m[key] = value
	}
	return m, nil
}

// ParseMetadata parses key:value pairs into ordered metadata.
func ParseMetadata(specs []string) (Metadata, error) {
	var md Metadata
	for _, spec := range specs {
		key, value, err := splitSpec("metadata", spec)
		if err != nil {
			return Metadata{}, err
		}
		md.Set(key, value)
	}
	return md, nil
}

// splitSpec splits at the first colon so replacements may contain colons.
func splitSpec(kind, spec string) (string, string, error) {
	key, value, ok := strings.Cut(spec, ":")
	if !ok {
		return "", "", &SpecError{Kind: kind, Spec: spec, Reason: "missing ':' separator"}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", &SpecError{Kind: kind, Spec: spec, Reason: "empty key"}
	}
	return key, strings.TrimSpace(value), nil
}
