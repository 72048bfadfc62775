package htmldown

import (
	"html"
	"regexp"
	"strings"
)

// relabelElements rewrites every mapped tag into a div carrying the
// mapped class label.
func relabelElements(elements ElementMap) func(string) string {
	names := elements.Names()
	if len(names) == 0 {
		return func(s string) string { return s }
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	re := regexp.MustCompile(`(?i)<(/?)(` + strings.Join(quoted, "|") + `)(?:\s[^>]*)?>`)
	return func(s string) string {
		return re.ReplaceAllStringFunc(s, func(m string) string {
			sub := re.FindStringSubmatch(m)
			if sub[1] != "" {
				return "</div>"
			}
			return `<div class="` + html.EscapeString(elements[strings.ToLower(sub[2])]) + `">`
		})
	}
}

// unwrapContainers removes div and span tags that carry no attributes.
// Running it again on its own output changes nothing.
func unwrapContainers(s string) string {
	return unwrapTags(s, tagToken.hasAttrs, "div", "span")
}

var semanticTags = []string{"article", "section", "nav", "aside", "header", "footer"}

func unwrapSemantic(s string) string {
	return unwrapTags(s, nil, semanticTags...)
}

var reSummary = regexp.MustCompile(`(?is)<summary(?:\s[^>]*)?>(.*?)</summary>`)

// flattenDetails turns a disclosure widget into a heading line taken from
// its summary followed by the body.
func flattenDetails(s string) string {
	return replaceBlocks(s, func(inner string, _ tagToken) string {
		inner = flattenDetails(inner)
		label := "Details"
		if m := reSummary.FindStringSubmatchIndex(inner); m != nil {
			if text := plainLine(inner[m[2]:m[3]]); text != "" {
				label = text
			}
			inner = inner[:m[0]] + inner[m[1]:]
		}
		return block("### " + label + block(strings.TrimSpace(inner)))
	}, "details")
}

var (
	reImage      = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]*)(?:\s+"[^"]*")?\)`)
	reFigcaption = regexp.MustCompile(`(?is)<figcaption(?:\s[^>]*)?>(.*?)</figcaption>`)
)

// consolidateFigures folds a figure and its caption into one image line
// that uses the caption as alternative text.
func consolidateFigures(s string) string {
	return replaceBlocks(s, func(inner string, _ tagToken) string {
		caption := ""
		if m := reFigcaption.FindStringSubmatchIndex(inner); m != nil {
			caption = plainLine(inner[m[2]:m[3]])
			inner = inner[:m[0]] + inner[m[1]:]
		}

		img := reImage.FindStringSubmatchIndex(inner)
		switch {
		case img != nil && caption != "":
			line := "![" + caption + "](" + inner[img[4]:img[5]] + ")"
			rest := strings.TrimSpace(inner[:img[0]] + inner[img[1]:])
			if rest == "" {
				return block(line)
			}
			return block(line + "\n\n" + rest)
		case caption != "":
			return block(strings.TrimSpace(inner) + "\n\n" + caption)
		}
		return block(strings.TrimSpace(inner))
	}, "figure")
}
