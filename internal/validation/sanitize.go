// Package validation holds input rules shared by services.
package validation

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// CleanText trims s and strips all markup. The result is HTML-escaped and
// safe to embed in a page.
func CleanText(s string) string {
	return strings.TrimSpace(strict.Sanitize(strings.TrimSpace(s)))
}

// CleanOptional applies CleanText and maps blank results to nil.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := CleanText(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
