package stats

import (
	"math"
	"sort"

	"github.com/voltplan/voltplan/core/model"
)

// neededHeadroom inflates the predicted spend so the simulated target keeps
// a margin over what history says was used.
const neededHeadroom = 1.1

// sweep replays the history against every distinct observed threshold and
// returns the candidate with the lowest cost per percent charged. ok is
// false when no candidate produced a valid run.
func sweep(entries []model.HistoryEntry, minimum, maximum int, levelChargeTime float64) (float64, bool) {
	if levelChargeTime <= 0 {
		return 0, false
	}
	seen := map[float64]struct{}{}
	var candidates []float64
	for _, e := range entries {
		for _, h := range e.Hours {
			if _, ok := seen[h.Threshold]; !ok {
				seen[h.Threshold] = struct{}{}
				candidates = append(candidates, h.Threshold)
			}
		}
	}
	sort.Float64s(candidates)

	bestRatio := math.Inf(1)
	bestT := 0.0
	found := false
	for _, t := range candidates {
		ratio, ok := simulate(entries, minimum, maximum, levelChargeTime, t)
		if ok && ratio < bestRatio {
			bestRatio = ratio
			bestT = t
			found = true
		}
	}
	return bestT, found
}

// simulate runs one threshold candidate over the history, charging below the
// minimum in time order and above it cheapest-hour first. Returns the cost
// per percent charged and whether the run stayed valid.
func simulate(entries []model.HistoryEntry, minimum, maximum int, levelChargeTime, t float64) (float64, bool) {
	lvl := 0.0
	totalCharged := 0.0
	totalCost := 0.0
	for i, e := range entries {
		if i == 0 || entries[i-1].Offsite {
			lvl = float64(e.StartLevel)
		} else {
			lvl -= float64(entries[i-1].Needed)
			if lvl < float64(minimum)/2 {
				return 0, false
			}
		}
		if e.Offsite {
			continue
		}

		neededLevel := float64(minimum) + float64(e.Needed)*neededHeadroom
		if neededLevel > float64(maximum) {
			neededLevel = float64(maximum)
		}
		if neededLevel < float64(minimum) {
			neededLevel = float64(minimum)
		}

		// Emergency phase runs in time order until the floor holds.
		hours := append([]model.HistoryHour(nil), e.Hours...)
		sort.Slice(hours, func(a, b int) bool { return hours[a].Hour.Before(hours[b].Hour) })
		idx := 0
		for ; idx < len(hours) && lvl < float64(minimum); idx++ {
			charged, cost := chargeHour(hours[idx], lvl, float64(minimum), float64(maximum), levelChargeTime)
			lvl += charged
			totalCharged += charged
			totalCost += cost
		}

		// Smart phase takes the remaining hours cheapest-threshold first.
		rest := hours[idx:]
		sort.Slice(rest, func(a, b int) bool { return rest[a].Threshold < rest[b].Threshold })
		for _, h := range rest {
			var target float64
			switch {
			case h.Threshold <= t:
				target = float64(maximum)
			case lvl < neededLevel:
				target = neededLevel
			default:
				continue
			}
			charged, cost := chargeHour(h, lvl, target, float64(maximum), levelChargeTime)
			lvl += charged
			totalCharged += charged
			totalCost += cost
		}
	}
	if lvl <= float64(minimum) || totalCharged <= 0 {
		return 0, false
	}
	return totalCost / totalCharged, true
}

// chargeHour charges toward target within one hour's overlap fraction,
// bounded by the battery ceiling.
func chargeHour(h model.HistoryHour, lvl, target, maximum, levelChargeTime float64) (charged, cost float64) {
	if target > maximum {
		target = maximum
	}
	if lvl >= target {
		return 0, 0
	}
	chargeTime := 3600 * h.Fraction
	if cap := (maximum - lvl) * levelChargeTime; cap < chargeTime {
		chargeTime = cap
	}
	if need := (target - lvl) * levelChargeTime; need < chargeTime {
		chargeTime = need
	}
	if chargeTime <= 0 {
		return 0, 0
	}
	return chargeTime / levelChargeTime, (chargeTime / 3600) * h.Price
}
