package discord

import (
	"strings"

	"golang.org/x/net/html"
)

// flattenHTML extracts the visible text of an HTML fragment, dropping
// script/style noise and the chrome Discord renders inside search result
// nodes (time elements and accessibility-only spans). Whitespace runs are
// collapsed to single spaces. A fragment that fails to parse degrades to
// the raw input.
func flattenHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var builder strings.Builder
	flattenNode(doc, &builder)
	return strings.TrimSpace(spaceRuns.ReplaceAllString(builder.String(), " "))
}

// flattenNode walks the parsed tree collecting text nodes.
func flattenNode(n *html.Node, builder *strings.Builder) {
	if n.Type == html.CommentNode {
		return
	}
	if n.Type == html.ElementNode && isNoiseElement(strings.ToLower(n.Data), n.Attr) {
		return
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			builder.WriteString(text)
			builder.WriteString(" ")
		}
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		flattenNode(child, builder)
	}
}

// isNoiseElement reports whether an element contributes no message text:
// scripts and styles, timestamps, and visually-hidden helper spans.
func isNoiseElement(tag string, attrs []html.Attribute) bool {
	switch tag {
	case "script", "style", "noscript", "svg", "time":
		return true
	}
	for _, attr := range attrs {
		if attr.Key == "aria-hidden" && attr.Val == "true" {
			return true
		}
		if attr.Key == "class" && strings.Contains(attr.Val, "visuallyHidden") {
			return true
		}
	}
	return false
}
