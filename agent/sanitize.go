package agent

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// sanitizeCap bounds the text sent to the entity extraction service.
const sanitizeCap = 4000

var (
	stripPolicy = bluemonday.StrictPolicy()

	mdImageRE      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkRE       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeadingRE    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	urlRE          = regexp.MustCompile(`https?://\S+`)
	angleBracketRE = regexp.MustCompile(`[<>]`)
	bracketRE      = regexp.MustCompile(`[\[\]()]`)
	controlCharRE  = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x{9f}]`)
	multiSpaceRE   = regexp.MustCompile(`[ \t]+`)
	multiNewlineRE = regexp.MustCompile(`\n{3,}`)
)

// sanitizeForNER aggressively strips HTML, Markdown, URLs, and control
// characters. Extracted article text often arrives as Markdown (images,
// links, headings) which the entity service's WAF rejects, image syntax
// in particular.
func sanitizeForNER(text string) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
		text = doc.Text()
	}
	text = stripPolicy.Sanitize(text)
	text = html.UnescapeString(text)
	text = mdImageRE.ReplaceAllString(text, "")
	text = mdLinkRE.ReplaceAllString(text, "$1")
	text = mdHeadingRE.ReplaceAllString(text, "")
	text = urlRE.ReplaceAllString(text, "")
	text = angleBracketRE.ReplaceAllString(text, "")
	text = bracketRE.ReplaceAllString(text, "")
	text = controlCharRE.ReplaceAllString(text, "")
	text = multiSpaceRE.ReplaceAllString(text, " ")
	text = multiNewlineRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncate caps s at n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
