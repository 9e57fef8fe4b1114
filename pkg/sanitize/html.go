// Package sanitize cleans user supplied rich text before it is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var allowedTags = []string{
	"p", "br", "strong", "b", "em", "i",
	"ul", "ol", "li", "a", "img",
	"h1", "h2", "h3", "blockquote",
}

// Policy strips every tag and attribute outside the description allow-list.
type Policy struct {
	policy *bluemonday.Policy
}

// NewDescriptionPolicy builds the policy applied to pet descriptions.
func NewDescriptionPolicy() *Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedTags...)
	p.AllowAttrs("href", "title", "rel", "target").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	return &Policy{policy: p}
}

// HTML returns the sanitized markup, trimmed of surrounding whitespace.
func (p *Policy) HTML(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.TrimSpace(p.policy.Sanitize(input))
}

var defaultPolicy = NewDescriptionPolicy()

// Description sanitizes input with the shared description policy.
func Description(input string) string {
	return defaultPolicy.HTML(input)
}
