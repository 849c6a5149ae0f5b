// Package textutil has small string and timestamp helpers used for column
// names and compact identifiers.
package textutil

import (
	"regexp"
	"strings"
)

var (
	wordStart     = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerToUpper  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	notIdentifier = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	underscores   = regexp.MustCompile(`_+`)
)

// CamelToSnake converts CamelCase to snake_case.
// "getHTTPResponse" becomes "get_http_response".
func CamelToSnake(s string) string {
	s = wordStart.ReplaceAllString(s, "${1}_${2}")
	s = lowerToUpper.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}

// CleanString turns free text into a snake_case identifier
func CleanString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "&", "And")
	s = notIdentifier.ReplaceAllString(s, "")
	s = CamelToSnake(s)
	return underscores.ReplaceAllString(s, "_")
}
