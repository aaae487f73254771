// Package sanitizer cleans user-submitted text before it is stored.
package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy  *bluemonday.Policy
	contentPolicy *bluemonday.Policy
	initOnce      sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Guides are long-form documents with headings and tables.
		contentPolicy = bluemonday.NewPolicy()
		contentPolicy.AllowStandardURLs()
		contentPolicy.AllowElements(
			"p", "br", "hr",
			"h2", "h3", "h4",
			"strong", "b", "em", "i", "u", "s",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
			"table", "thead", "tbody", "tr", "th", "td",
		)
		contentPolicy.AllowAttrs("href").OnElements("a")
		contentPolicy.AllowImages()
		contentPolicy.RequireNoFollowOnLinks(true)
		contentPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
}

// StripHTML removes every tag and returns trimmed plain text.
// Used for titles, ticket messages and email bodies.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeHTML keeps formatting markup safe for guide content and drops
// scripts, event handlers and javascript: URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return contentPolicy.Sanitize(s)
}
