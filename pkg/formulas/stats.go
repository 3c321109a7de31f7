package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Regression holds an ordinary least squares fit of y over x = 0..n-1.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// LinearTrend fits values against their index. Fewer than two points yields a zero fit.
func LinearTrend(values []float64) Regression {
	if len(values) < 2 {
		return Regression{}
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	r2 := stat.RSquared(xs, values, nil, alpha, beta)
	if math.IsNaN(r2) {
		r2 = 0
	}

	return Regression{Slope: beta, Intercept: alpha, RSquared: r2}
}

// MaxDrawdown returns the largest peak-to-trough fall in percent (a non-positive number).
func MaxDrawdown(values []float64) float64 {
	peak := 0.0
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// CalculateSMA calculates the Simple Moving Average of the last length values
func CalculateSMA(values []float64, length int) *float64 {
	if length <= 0 || len(values) < length {
		return nil
	}

	sma := talib.Sma(values, length)
	if len(sma) > 0 && !math.IsNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	result := Mean(values[len(values)-length:])
	return &result
}
