package htmldown

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	rePreCode    = regexp.MustCompile(`(?is)<pre(?:\s[^>]*)?>\s*(?:<code(\s[^>]*)?>)?(.*?)</pre>`)
	reRule       = regexp.MustCompile(`(?i)<hr(?:\s[^>]*)?/?>`)
	reBackticks  = regexp.MustCompile("`+")
	reBlankLines = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
)

// fenceCodeBlocks turns pre/code spans into fenced blocks. The fence is
// longer than any backtick run inside the code.
func fenceCodeBlocks(s string) string {
	return rePreCode.ReplaceAllStringFunc(s, func(m string) string {
		sub := rePreCode.FindStringSubmatch(m)
		code := strings.TrimRight(sub[2], " \t\n")
		code = strings.TrimSuffix(code, "</code>")
		code = strings.Trim(html.UnescapeString(code), "\n")

		lang := ""
		for _, class := range strings.Fields(parseAttrs(sub[1])["class"]) {
			if strings.HasPrefix(class, "language-") {
				lang = strings.TrimPrefix(class, "language-")
				break
			}
		}

		fence := 3
		for _, run := range reBackticks.FindAllString(code, -1) {
			if len(run) >= fence {
				fence = len(run) + 1
			}
		}
		ticks := strings.Repeat("`", fence)
		return block(ticks + lang + "\n" + code + "\n" + ticks)
	})
}

func normalizeRules(s string) string {
	return reRule.ReplaceAllString(s, "\n\n---\n\n")
}

// formatLists renders ul/ol blocks as marker lines. Nested lists are
// rendered recursively and indented two spaces below their parent item.
func formatLists(s string) string {
	return replaceBlocks(s, func(inner string, open tagToken) string {
		return block(strings.Join(renderList(inner, open.name == "ol"), "\n"))
	}, "ul", "ol")
}

func renderList(inner string, ordered bool) []string {
	var (
		lines  []string
		last   int
		indent string
	)
	// Loose text between items continues the item before it.
	loose := func(seg string) {
		for _, line := range itemLines(seg) {
			lines = append(lines, indent+line)
		}
	}
	for i, item := range outerBlocks(inner, "li") {
		loose(plainLine(inner[last:item.open.start]))
		marker := "- "
		if ordered {
			marker = strconv.Itoa(i+1) + ". "
		}
		lines = append(lines, renderItem(item.inner(inner), marker)...)
		last = item.close.end
		indent = strings.Repeat(" ", len(marker))
	}
	loose(plainLine(inner[last:]))
	return lines
}

// renderItem writes one item. The first text line follows the marker,
// later text lines continue under it and nested lists are indented.
// Quotes and tables inside the item are formatted in place so they stay
// indented under it.
func renderItem(content, marker string) []string {
	var (
		lines []string
		last  int
	)
	textLines := func(seg string) {
		seg = formatTables(formatBlockquotes(seg))
		for _, line := range itemLines(seg) {
			if len(lines) == 0 {
				lines = append(lines, marker+line)
				continue
			}
			lines = append(lines, strings.Repeat(" ", len(marker))+line)
		}
	}
	for _, nested := range outerBlocks(content, "ul", "ol") {
		textLines(content[last:nested.open.start])
		if len(lines) == 0 {
			lines = append(lines, strings.TrimRight(marker, " "))
		}
		for _, line := range renderList(nested.inner(content), nested.open.name == "ol") {
			lines = append(lines, "  "+line)
		}
		last = nested.close.end
	}
	textLines(content[last:])
	if len(lines) == 0 {
		lines = append(lines, strings.TrimRight(marker, " "))
	}
	return lines
}

// itemLines trims item text into lines, dropping blank lines outside
// fenced code.
func itemLines(seg string) []string {
	var (
		out     []string
		inFence bool
	)
	for _, line := range strings.Split(strings.TrimSpace(seg), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if trimmed == "" && !inFence {
			continue
		}
		if inFence {
			out = append(out, strings.TrimRight(line, " \t"))
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// formatBlockquotes prefixes each line of a quoted block with "> ".
// Nested quotes compound.
func formatBlockquotes(s string) string {
	return replaceBlocks(s, func(inner string, _ tagToken) string {
		body := strings.TrimSpace(formatBlockquotes(inner))
		body = reBlankLines.ReplaceAllString(body, "\n\n")
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				lines[i] = ">"
				continue
			}
			lines[i] = "> " + line
		}
		return block(strings.Join(lines, "\n"))
	}, "blockquote")
}

var reCaption = regexp.MustCompile(`(?is)<caption(?:\s[^>]*)?>(.*?)</caption>`)

// formatTables renders table blocks as pipe rows. A separator with one
// cell per first-row cell follows the first row. Rows of other widths are
// reproduced as they are.
func formatTables(s string) string {
	return replaceBlocks(s, func(inner string, _ tagToken) string {
		var lines []string
		if m := reCaption.FindStringSubmatch(inner); m != nil {
			if caption := plainLine(m[1]); caption != "" {
				lines = append(lines, "*"+caption+"*", "")
			}
		}
		for i, row := range outerBlocks(inner, "tr") {
			rowInner := row.inner(inner)
			var cells []string
			for _, cell := range outerBlocks(rowInner, "td", "th") {
				cells = append(cells, tableCell(cell.inner(rowInner)))
			}
			lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
			if i == 0 {
				lines = append(lines, "|"+strings.Repeat(" --- |", len(cells)))
			}
		}
		return block(strings.Join(lines, "\n"))
	}, "table")
}

// tableCell collapses cell content to one line and escapes pipes.
func tableCell(content string) string {
	content = formatTables(content)
	text := strings.Join(strings.Fields(content), " ")
	return strings.ReplaceAll(text, "|", `\|`)
}
