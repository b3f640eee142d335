package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	backgroundRe = regexp.MustCompile(`(?i)background(?:-color)?:\s*(#[0-9a-f]{6}|rgb\(\s*\d+\s*,\s*\d+\s*,\s*\d+\s*\))|mso-pattern:\s*(#[0-9a-f]{6})\s+none`)
	rgbRe        = regexp.MustCompile(`^rgb\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*\)$`)
	hexColorRe   = regexp.MustCompile(`^#[0-9a-f]{6}$`)
)

// findFirst returns the first element named tag in document order.
func findFirst(node *html.Node, tag string) *html.Node {
	if node.Type == html.ElementNode && node.Data == tag {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant element named tag in document order.
func findAll(node *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walker func(*html.Node)
	walker = func(n *html.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.Data == tag {
				out = append(out, child)
			}
			walker(child)
		}
	}
	walker(node)
	return out
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// strippedStrings returns the trimmed, non-empty text nodes under node. Line
// breaks in the source markup therefore separate entries.
func strippedStrings(node *html.Node) []string {
	var out []string
	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				out = append(out, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walker(child)
		}
	}
	walker(node)
	return out
}

// hidden reports whether a row is not rendered by the source page.
func hidden(row *html.Node) bool {
	style := strings.ToLower(strings.ReplaceAll(attr(row, "style"), " ", ""))
	return strings.Contains(style, "display:none") || attr(row, "height") == "0"
}

// backgroundColor returns the cell's background as lowercase #rrggbb, or ""
// when the cell declares none. Inline styles win over the bgcolor attribute.
func backgroundColor(cell *html.Node) string {
	if m := backgroundRe.FindStringSubmatch(attr(cell, "style")); m != nil {
		for _, group := range m[1:] {
			if group != "" {
				return normalizeColor(group)
			}
		}
	}
	return normalizeColor(attr(cell, "bgcolor"))
}

// normalizeColor lowercases hex colours and converts rgb() notation to hex.
// Anything else is reported as no colour.
func normalizeColor(color string) string {
	color = strings.ToLower(strings.TrimSpace(color))
	if hexColorRe.MatchString(color) {
		return color
	}
	m := rgbRe.FindStringSubmatch(color)
	if m == nil {
		return ""
	}
	var b strings.Builder
	b.WriteByte('#')
	for _, part := range m[1:] {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return ""
		}
		if n < 16 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.FormatInt(int64(n), 16))
	}
	return b.String()
}
