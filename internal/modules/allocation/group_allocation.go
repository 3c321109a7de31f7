package allocation

import (
	"strings"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/pkg/formulas"
)

// Slice is one pie-chart segment. Value is a percentage of the portfolio.
type Slice struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Ticker string  `json:"ticker,omitempty"`
}

// labelled is a position value tagged with the group it counts toward.
type labelled struct {
	label string
	value float64
}

// skipLabel reports labels that never get their own segment.
func skipLabel(label string) bool {
	switch strings.TrimSpace(label) {
	case "", domain.NotAvailable, "Unknown":
		return true
	}
	return false
}

// aggregateByGroup sums values per label in first-seen order and converts them to
// percentages of total. Skipped labels still count toward total.
func aggregateByGroup(items []labelled, total float64, skip func(string) bool) []Slice {
	order := make([]string, 0, len(items))
	sums := make(map[string]float64, len(items))
	for _, it := range items {
		if skip != nil && skip(it.label) {
			continue
		}
		if _, seen := sums[it.label]; !seen {
			order = append(order, it.label)
		}
		sums[it.label] += it.value
	}

	slices := make([]Slice, 0, len(order))
	for _, label := range order {
		slices = append(slices, Slice{
			Name:  label,
			Value: formulas.Round2(formulas.Share(sums[label], total)),
		})
	}
	return slices
}
