package htmldown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"
)

var (
	reTrailingWhitespace = regexp.MustCompile(`[ \t]+\n`)
	reMultipleNewlines   = regexp.MustCompile(`\n{3,}`)
	reCRLF               = regexp.MustCompile(`\r\n?`)
	reDataURI            = regexp.MustCompile(`(data:[a-zA-Z0-9/+.-]+;base64,)[A-Za-z0-9+/=]{64,}`)
	reListLine           = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s`)
)

// normalizeOutput applies post-processing to converted output:
// - Normalize line endings (CRLF -> LF)
// - Strip non-printable/control characters (keep \n, \t)
// - Strip trailing whitespace from each line
// - Collapse 3+ consecutive newlines to 2
// - Trim leading/trailing whitespace from final output
func normalizeOutput(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	s = reCRLF.ReplaceAllString(s, "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	// A trailing newline makes sure the last line is processed.
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	s = reTrailingWhitespace.ReplaceAllString(s, "\n")
	s = reMultipleNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// truncateDataURIs truncates large base64 data URIs to data:mime/type;base64...
func truncateDataURIs(md string) string {
	return reDataURI.ReplaceAllString(md, "${1}...")
}

// wrapParagraphs word-wraps plain paragraph lines to width. Headings,
// list items, quotes, table rows, raw tags and fenced code keep their
// lines.
func wrapParagraphs(s string, width uint) string {
	if width == 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || !wrappable(line) || uint(utf8.RuneCountInString(line)) <= width {
			continue
		}
		lines[i] = wordwrap.String(line, int(width))
	}
	return strings.Join(lines, "\n")
}

func wrappable(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	switch line[0] {
	case '#', '>', '|', '<':
		return false
	}
	if line == "---" || reListLine.MatchString(line) {
		return false
	}
	return true
}
