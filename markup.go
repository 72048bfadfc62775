package htmldown

import (
	"html"
	"regexp"
	"strings"
)

// The rewrite stages work on flat text that still carries the tags the
// structural pass kept. These helpers find and pair those tags.

var (
	reTag  = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9-]*)((?:\s+[^\s/>"'=]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'>]+))?)*)\s*(/?)>`)
	reAttr = regexp.MustCompile(`([^\s/>"'=]+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?`)
)

type tagToken struct {
	start, end  int
	name        string
	closing     bool
	selfClosing bool
	attrs       string
}

func (t tagToken) hasAttrs() bool { return strings.TrimSpace(t.attrs) != "" }

func (t tagToken) attr(name string) string {
	return parseAttrs(t.attrs)[name]
}

// scanTags returns the tags in s whose lower-cased name is one of names.
func scanTags(s string, names ...string) []tagToken {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var tokens []tagToken
	for _, m := range reTag.FindAllStringSubmatchIndex(s, -1) {
		name := strings.ToLower(s[m[4]:m[5]])
		if !want[name] {
			continue
		}
		tokens = append(tokens, tagToken{
			start:       m[0],
			end:         m[1],
			name:        name,
			closing:     m[3] > m[2],
			selfClosing: m[9] > m[8],
			attrs:       s[m[6]:m[7]],
		})
	}
	return tokens
}

// parseAttrs reads an attribute string into a map of unescaped values.
func parseAttrs(attrs string) map[string]string {
	out := make(map[string]string)
	for _, m := range reAttr.FindAllStringSubmatch(attrs, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if value == "" {
			value = m[4]
		}
		out[strings.ToLower(m[1])] = html.UnescapeString(value)
	}
	return out
}

// tagBlock is a matched open/close pair.
type tagBlock struct {
	open, close tagToken
}

func (b tagBlock) inner(s string) string { return s[b.open.end:b.close.start] }

// tagPairs pairs open and close tags of the given names. Tags of all the
// names share one nesting depth. Unmatched tags are left out.
func tagPairs(s string, names ...string) []tagBlock {
	var (
		stack []tagToken
		pairs []tagBlock
	)
	for _, tok := range scanTags(s, names...) {
		switch {
		case tok.selfClosing:
		case !tok.closing:
			stack = append(stack, tok)
		case len(stack) > 0:
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			pairs = append(pairs, tagBlock{open: open, close: tok})
		}
	}
	return pairs
}

// outerBlocks returns the outermost pairs in document order.
func outerBlocks(s string, names ...string) []tagBlock {
	var outer []tagBlock
	for _, p := range tagPairs(s, names...) {
		// Pairs are produced inner first, so an enclosing pair replaces
		// anything collected inside it.
		for len(outer) > 0 && outer[len(outer)-1].open.start > p.open.start {
			outer = outer[:len(outer)-1]
		}
		outer = append(outer, p)
	}
	return outer
}

// replaceBlocks replaces every outermost block of names with fn's result.
func replaceBlocks(s string, fn func(inner string, open tagToken) string, names ...string) string {
	blocks := outerBlocks(s, names...)
	if len(blocks) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, blk := range blocks {
		b.WriteString(s[last:blk.open.start])
		b.WriteString(fn(blk.inner(s), blk.open))
		last = blk.close.end
	}
	b.WriteString(s[last:])
	return b.String()
}

// unwrapTags removes the paired tags of names for which keep returns
// false, leaving their content in place. A nil keep removes them all.
func unwrapTags(s string, keep func(tagToken) bool, names ...string) string {
	var drop [][2]int
	for _, p := range tagPairs(s, names...) {
		if keep != nil && keep(p.open) {
			continue
		}
		drop = append(drop, [2]int{p.open.start, p.open.end}, [2]int{p.close.start, p.close.end})
	}
	if len(drop) == 0 {
		return s
	}
	remove := make([]bool, len(s))
	for _, r := range drop {
		for i := r[0]; i < r[1]; i++ {
			remove[i] = true
		}
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !remove[i] {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

var reAnyTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// plainLine strips tags and collapses whitespace into a single line.
func plainLine(s string) string {
	return strings.Join(strings.Fields(reAnyTag.ReplaceAllString(s, " ")), " ")
}

// block surrounds s with blank lines so it stands on its own.
func block(s string) string {
	return "\n\n" + s + "\n\n"
}
