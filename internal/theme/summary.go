package theme

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const summaryLimit = 160

// Summary returns the text of the first paragraph of rendered content,
// cut to a length suitable for a meta description.
func Summary(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	p := findFirst(doc, "p")
	if p == nil {
		return ""
	}
	var b strings.Builder
	collectText(p, &b)
	text := strings.Join(strings.Fields(b.String()), " ")
	return truncate(text, summaryLimit)
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
