// Package clients holds shared helpers for the outbound market data clients.
package clients

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Lookup evaluates path against a decoded JSON document. A single-element
// result list is unwrapped to its element.
func Lookup(doc interface{}, path string) (interface{}, error) {
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s: %w", path, err)
	}
	if list, ok := val.([]interface{}); ok && len(list) == 1 {
		val = list[0]
	}
	return val, nil
}

// Float reads a number (or numeric string) at path. Values such as "NA" report false.
func Float(doc interface{}, path string) (float64, bool) {
	val, err := Lookup(doc, path)
	if err != nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// String reads a non-empty string at path.
func String(doc interface{}, path string) (string, bool) {
	val, err := Lookup(doc, path)
	if err != nil {
		return "", false
	}
	s, ok := val.(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

// LastNumber returns the last numeric element of the list at path, skipping nulls.
func LastNumber(doc interface{}, path string) (float64, bool) {
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, false
	}
	list, ok := val.([]interface{})
	if !ok {
		return 0, false
	}
	for i := len(list) - 1; i >= 0; i-- {
		if f, ok := list[i].(float64); ok && f > 0 {
			return f, true
		}
	}
	return 0, false
}
