package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNoHoldings is returned for an empty holdings list.
var ErrNoHoldings = errors.New("no holdings provided")

// ValidateHoldings enforces non-empty symbols and positive cost basis and share counts.
func ValidateHoldings(holdings []Holding) error {
	if len(holdings) == 0 {
		return ErrNoHoldings
	}
	for i, h := range holdings {
		if NormalizeSymbol(h.Symbol) == "" {
			return fmt.Errorf("holding %d: symbol is required", i)
		}
		if h.CostBasis <= 0 {
			return fmt.Errorf("holding %d (%s): cost_basis must be positive", i, h.Symbol)
		}
		if h.Shares <= 0 {
			return fmt.Errorf("holding %d (%s): shares must be positive", i, h.Symbol)
		}
	}
	return nil
}

// HoldingKeyParts renders holdings as stable strings for request-scoped cache keys.
func HoldingKeyParts(holdings []Holding) []string {
	parts := make([]string, 0, len(holdings))
	for _, h := range holdings {
		parts = append(parts, NormalizeSymbol(h.Symbol)+":"+
			strconv.FormatFloat(h.CostBasis, 'g', -1, 64)+":"+
			strconv.FormatFloat(h.Shares, 'g', -1, 64))
	}
	return parts
}
