// Package utils holds small helpers shared by the data layer and handlers.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowQueryThreshold is the duration above which a query is logged as a warning.
// First-of-day MotherDuck loads routinely take a few seconds.
const SlowQueryThreshold = 5 * time.Second

// MeasureQuery returns a func that logs the duration and row count of a query
//
// Usage:
//
//	done := utils.MeasureQuery("daily_closes", log)
//	...
//	done(len(rows))
func MeasureQuery(name string, log zerolog.Logger) func(rows int) time.Duration {
	start := time.Now()

	return func(rows int) time.Duration {
		duration := time.Since(start)

		log.Debug().
			Str("query", name).
			Dur("duration_ms", duration).
			Int("rows", rows).
			Msg("Analytics query completed")

		if duration > SlowQueryThreshold {
			log.Warn().
				Str("query", name).
				Dur("duration", duration).
				Int("rows", rows).
				Msg("Slow analytics query detected")
		}
		return duration
	}
}
