package trends

import (
	"time"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// WeeklyBars folds ascending daily bars into ISO-week bars. Each week is dated by its
// last trading day, opens at the first open and closes at the last close.
// Bars with unparseable dates are dropped.
func WeeklyBars(daily []domain.Bar) []domain.Bar {
	var (
		weeks   []domain.Bar
		current domain.Bar
		curYear int
		curWeek int
		open    bool
	)

	for _, bar := range daily {
		t, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		year, week := t.ISOWeek()

		if open && year == curYear && week == curWeek {
			current.Date = bar.Date
			current.High = max(current.High, bar.High)
			current.Low = min(current.Low, bar.Low)
			current.Close = bar.Close
			continue
		}

		if open {
			weeks = append(weeks, current)
		}
		current = bar
		curYear, curWeek = year, week
		open = true
	}
	if open {
		weeks = append(weeks, current)
	}
	return weeks
}
