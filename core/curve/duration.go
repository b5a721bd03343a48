package curve

import (
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// DefaultSecondsPerLevel is assumed for levels the curve has not learned yet.
const DefaultSecondsPerLevel = 100

// lastLevelFactor shaves part of the final percent so the estimate lands
// slightly before the target is reached rather than after it.
const lastLevelFactor = 0.75

// Duration estimates how long charging from level `from` to level `to`
// takes, using the learned per-percent durations with a fallback for
// unlearned levels. Returns 0 when from >= to.
func Duration(points []model.ChargeCurvePoint, from, to int) time.Duration {
	if from >= to {
		return 0
	}
	byLevel := make(map[int]int, len(points))
	for _, p := range points {
		byLevel[p.Level] = p.Duration
	}
	var ms float64
	for l := from; l <= to; l++ {
		d, ok := byLevel[l]
		if !ok {
			d = DefaultSecondsPerLevel
		}
		factor := 1.0
		if l == to {
			factor = lastLevelFactor
		}
		ms += float64(d) * factor * 1000
	}
	return time.Duration(ms) * time.Millisecond
}

// MaxLevel returns the highest learned level, or 0 when the curve is empty.
// A curve whose MaxLevel is below 100 still needs a calibration charge.
func MaxLevel(points []model.ChargeCurvePoint) int {
	max := 0
	for _, p := range points {
		if p.Level > max {
			max = p.Level
		}
	}
	return max
}
