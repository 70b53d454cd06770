package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding Text will peel off.
const maxPasses = 8

// Text strips all HTML tags and returns trimmed plain text. Entities are
// decoded since the result is served as JSON, and the policy is reapplied to
// the decoded text until it stops changing, so markup smuggled in as entities
// is stripped too. Input still changing after maxPasses is dropped.
func Text(input string) string {
	current := input
	for range maxPasses {
		next := html.UnescapeString(StrictPolicy.Sanitize(current))
		if next == current {
			return strings.TrimSpace(next)
		}
		current = next
	}
	return ""
}

// TextPtr applies Text to a non-nil pointer and returns a new pointer.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	value := Text(*input)
	return &value
}
