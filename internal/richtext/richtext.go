// Package richtext cleans HTML written in the product detail editor and
// finds the images embedded in it.
package richtext

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// policy is built once; a bluemonday policy is safe for concurrent use
// once configured.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Editor alignment and indentation classes (ql-align-center, ql-indent-1).
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("p", "span", "li", "ol", "ul", "pre", "h1", "h2", "h3", "img")
	return p
}

// Sanitize strips scripts, event handlers and unsafe URLs, returning the
// trimmed result.
func Sanitize(fragment string) string {
	return strings.TrimSpace(policy.Sanitize(fragment))
}

// ImageURLs returns the src of every <img> in fragment, in document order
// and without duplicates.
func ImageURLs(fragment string) ([]string, error) {
	if !strings.Contains(fragment, "<img") {
		return nil, nil
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var urls []string
	seen := make(map[string]bool)
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key != "src" {
					continue
				}
				if src := strings.TrimSpace(attr.Val); src != "" && !seen[src] {
					seen[src] = true
					urls = append(urls, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return urls, nil
}
