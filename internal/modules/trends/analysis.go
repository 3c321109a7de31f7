package trends

import (
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/pkg/formulas"
)

const smaWeeks = 10

// Analysis summarises a weekly close series.
type Analysis struct {
	Slope          float64  `json:"slope"`
	Intercept      float64  `json:"intercept"`
	RSquared       float64  `json:"r_squared"`
	MaxDrawdownPct float64  `json:"max_drawdown_pct"`
	SMA10w         *float64 `json:"sma_10w"`
	ChangePct      float64  `json:"change_pct"`
	Weeks          int      `json:"weeks"`
}

// Analyze fits a linear trend through weekly closes and measures drawdown, change and the 10-week SMA.
func Analyze(weeks []domain.Bar) Analysis {
	closes := make([]float64, len(weeks))
	for i, w := range weeks {
		closes[i] = w.Close
	}

	a := Analysis{Weeks: len(closes)}
	if len(closes) == 0 {
		return a
	}

	fit := formulas.LinearTrend(closes)
	a.Slope = formulas.Round(fit.Slope, 4)
	a.Intercept = formulas.Round(fit.Intercept, 4)
	a.RSquared = formulas.Round(fit.RSquared, 4)
	a.MaxDrawdownPct = formulas.Round2(formulas.MaxDrawdown(closes))
	a.ChangePct = formulas.Round2(formulas.PercentChange(closes[len(closes)-1], &closes[0]))

	if sma := formulas.CalculateSMA(closes, smaWeeks); sma != nil {
		a.SMA10w = formulas.Ptr(formulas.Round2(*sma))
	}
	return a
}
