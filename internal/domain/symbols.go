package domain

import "strings"

// dataSuffix is how US listings are keyed in the analytical tables.
const dataSuffix = ".US"

// NormalizeSymbol trims, upper-cases and strips a trailing ".US".
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.TrimSpace(strings.TrimSuffix(s, dataSuffix))
}

// DataSymbol returns the symbol in the form stored by the analytical database (AAPL -> AAPL.US).
func DataSymbol(s string) string {
	n := NormalizeSymbol(s)
	if n == "" {
		return ""
	}
	return n + dataSuffix
}

// NormalizeSymbols normalizes a list, dropping empties and duplicates while keeping first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := NormalizeSymbol(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// HoldingSymbols returns the normalized, de-duplicated symbols of a holdings list.
func HoldingSymbols(holdings []Holding) []string {
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	return NormalizeSymbols(symbols)
}
