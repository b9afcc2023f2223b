package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	angleStrip   = strings.NewReplacer("<", "", ">", "")
)

// SanitizeText strips markup from free text entered by registrants. Entities
// are decoded before sanitizing so encoded tags are removed too, and any angle
// bracket left after decoding the sanitized text is dropped.
func SanitizeText(input string) string {
	decoded := html.UnescapeString(strings.TrimSpace(input))
	clean := html.UnescapeString(strictPolicy.Sanitize(decoded))
	return strings.TrimSpace(angleStrip.Replace(clean))
}
