package sources

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for HTML parsing performance.
var (
	scriptTag   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	allTags     = regexp.MustCompile(`<[^>]+>`)
	multiSpaces = regexp.MustCompile(`\s+`)

	headingLink = regexp.MustCompile(`(?is)<h[1-3][^>]*>.*?<a[^>]*>(.*?)</a>`)
	paragraph   = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
)

// stripTags removes markup and decodes entities, collapsing whitespace.
func stripTags(fragment string) string {
	fragment = scriptTag.ReplaceAllString(fragment, "")
	fragment = styleTag.ReplaceAllString(fragment, "")
	fragment = allTags.ReplaceAllString(fragment, "")
	fragment = html.UnescapeString(fragment)
	return strings.TrimSpace(multiSpaces.ReplaceAllString(fragment, " "))
}

// cleanPage drops script and style blocks so markup embedded in code does
// not confuse the extractors.
func cleanPage(page string) string {
	page = scriptTag.ReplaceAllString(page, "")
	return styleTag.ReplaceAllString(page, "")
}

// firstHeadingLink extracts the text of the first linked heading on a page.
func firstHeadingLink(page string) string {
	matches := headingLink.FindStringSubmatch(cleanPage(page))
	if len(matches) < 2 {
		return ""
	}
	return stripTags(matches[1])
}

// firstParagraph extracts the text of the first non-empty paragraph.
func firstParagraph(page string) string {
	for _, matches := range paragraph.FindAllStringSubmatch(cleanPage(page), 8) {
		if text := stripTags(matches[1]); text != "" {
			return text
		}
	}
	return ""
}
