package htmldown

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var styledTags = []string{"span", "div", "p", "font"}

// mapInlineStyles replaces styled span, div, p and font elements, innermost
// first. Bold and italic styling become emphasis markers, center and right
// alignment become an aligned div block, anything else is dropped and the
// inner text kept.
func mapInlineStyles(s string) string {
	for {
		pair, ok := innermostStyled(s)
		if !ok {
			return s
		}
		s = s[:pair.open.start] + applyStyle(pair.open, pair.inner(s)) + s[pair.close.end:]
	}
}

// innermostStyled returns the first styled pair to close. Pairs close
// inner first, so it holds no other styled pair.
func innermostStyled(s string) (tagBlock, bool) {
	for _, p := range tagPairs(s, styledTags...) {
		if _, ok := parseAttrs(p.open.attrs)["style"]; ok {
			return p, true
		}
	}
	return tagBlock{}, false
}

func applyStyle(open tagToken, inner string) string {
	decls := parseStyle(parseAttrs(open.attrs)["style"])

	out := inner
	if text := strings.TrimSpace(out); text != "" {
		lead := out[:strings.Index(out, text)]
		trail := out[len(lead)+len(text):]
		if isItalic(decls["font-style"]) {
			text = "*" + text + "*"
		}
		if isBold(decls["font-weight"]) {
			text = "**" + text + "**"
		}
		out = lead + text + trail
	}

	switch align := decls["text-align"]; align {
	case "center", "right":
		return block(`<div align="` + align + `">` + block(strings.TrimSpace(out)) + "</div>")
	}
	if open.name == "div" || open.name == "p" {
		return block(out)
	}
	return out
}

// parseStyle reads a style attribute into lower-cased declarations.
func parseStyle(style string) map[string]string {
	decls := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		decls[strings.ToLower(strings.TrimSpace(prop))] = strings.ToLower(value)
	}
	return decls
}

func isBold(weight string) bool {
	switch weight {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(weight)
	return err == nil && n >= 600
}

func isItalic(style string) bool {
	return style == "italic" || style == "oblique"
}

var (
	reFormField = regexp.MustCompile(`(?is)<textarea(\s[^>]*)?>(.*?)</textarea>|<button(\s[^>]*)?>(.*?)</button>|<select(\s[^>]*)?>(.*?)</select>|<input(\s[^>]*?)?\s*/?>|</?form(?:\s[^>]*)?>`)
	reOption    = regexp.MustCompile(`(?is)<option(?:\s[^>]*)?>(.*?)</option>`)
)

// flattenForms reduces form markup to one line per control. Text between
// adjacent controls that is only whitespace is dropped so the lines stay
// together.
func flattenForms(s string) string {
	matches := reFormField.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	prevField := false
	group := func(m []int, n int) string {
		if m[2*n] < 0 {
			return ""
		}
		return s[m[2*n]:m[2*n+1]]
	}
	for _, m := range matches {
		between := s[last:m[0]]
		if !(prevField && strings.TrimSpace(between) == "") {
			b.WriteString(between)
		}
		last = m[1]

		tag := strings.ToLower(s[m[0]:m[1]])
		var line string
		switch {
		case strings.HasPrefix(tag, "<textarea"):
			line = "Textarea: " + fieldName(group(m, 1)) + ": " + html.UnescapeString(plainLine(group(m, 2)))
		case strings.HasPrefix(tag, "<button"):
			line = "Button: " + html.UnescapeString(plainLine(group(m, 4)))
		case strings.HasPrefix(tag, "<select"):
			var options []string
			for _, o := range reOption.FindAllStringSubmatch(group(m, 6), -1) {
				options = append(options, html.UnescapeString(plainLine(o[1])))
			}
			line = "Select: " + fieldName(group(m, 5)) + " (" + strings.Join(options, ", ") + ")"
		case strings.HasPrefix(tag, "<input"):
			line = inputLine(parseAttrs(group(m, 7)))
		default:
			b.WriteString("\n\n")
			prevField = false
			continue
		}

		if str := b.String(); str != "" && !strings.HasSuffix(str, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("- " + strings.TrimSpace(line) + "\n")
		prevField = true
	}
	rest := s[last:]
	if prevField {
		rest = strings.TrimLeft(rest, " \t")
	}
	b.WriteString(rest)
	return b.String()
}

func inputLine(attrs map[string]string) string {
	typ := strings.ToLower(attrs["type"])
	if typ == "" {
		typ = "text"
	}
	switch typ {
	case "submit", "button", "reset":
		label := attrs["value"]
		if label == "" {
			label = strings.ToUpper(typ[:1]) + typ[1:]
		}
		return "Button: " + label
	}
	name := attrs["name"]
	if name == "" {
		name = "unnamed"
	}
	return "Input: " + name + " (" + typ + ")"
}

func fieldName(attrs string) string {
	if name := parseAttrs(attrs)["name"]; name != "" {
		return name
	}
	return "unnamed"
}

var codeUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")

// unescapeCodeSpans restores the markup characters inside code spans.
// Fenced blocks are left alone.
func unescapeCodeSpans(s string) string {
	lines := strings.Split(s, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, "`~") == "" {
				fence = ""
			}
			continue
		}
		if run := fenceRun(trimmed); run != "" {
			fence = run
			continue
		}
		if strings.Contains(line, "`") {
			lines[i] = unescapeSpansInLine(line)
		}
	}
	return strings.Join(lines, "\n")
}

// fenceRun returns the opening fence of a fenced code line, or "".
func fenceRun(line string) string {
	for _, c := range []string{"`", "~"} {
		n := len(line) - len(strings.TrimLeft(line, c))
		if n >= 3 {
			return strings.Repeat(c, n)
		}
	}
	return ""
}

func unescapeSpansInLine(line string) string {
	var b strings.Builder
	for i := 0; i < len(line); {
		if line[i] != '`' {
			b.WriteByte(line[i])
			i++
			continue
		}
		n := backtickRun(line, i)
		open := line[i : i+n]
		closeAt := -1
		for j := i + n; j < len(line); {
			if line[j] != '`' {
				j++
				continue
			}
			m := backtickRun(line, j)
			if m == n {
				closeAt = j
				break
			}
			j += m
		}
		if closeAt < 0 {
			b.WriteString(open)
			i += n
			continue
		}
		b.WriteString(open)
		b.WriteString(codeUnescaper.Replace(line[i+n : closeAt]))
		b.WriteString(open)
		i = closeAt + n
	}
	return b.String()
}

func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}
