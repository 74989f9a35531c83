// Package timeutil holds the duration arithmetic shared by the timer,
// validation, and reporting code paths.
package timeutil

import (
	"math"
	"time"
)

// ElapsedSeconds returns the whole seconds between start and end,
// truncated toward zero and clamped at zero. Callers validate ordering
// before reaching this function; the clamp keeps a racing clock from
// ever producing a negative duration.
func ElapsedSeconds(start, end time.Time) int64 {
	secs := int64(end.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Hours converts seconds to hours rounded half-up to 2 decimal places.
func Hours(seconds int64) float64 {
	return round2(float64(seconds) / 3600.0)
}

// Minutes converts seconds to minutes rounded half-up to 2 decimal places.
func Minutes(seconds int64) float64 {
	return round2(float64(seconds) / 60.0)
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
