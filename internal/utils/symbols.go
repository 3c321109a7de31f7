package utils

import (
	"strings"
	"unicode"
)

// SplitList splits a query parameter on commas and whitespace.
// Empty items are dropped; nil for blank input.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
