// Package plan builds and reconciles charge plan segments. All functions are
// pure; persistence and triggering live with the planner.
package plan

import (
	"sort"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// maxShift bounds how far the shift pass may delay a segment start.
const maxShift = time.Hour

// Cleanup sorts, merges and compacts a raw segment list into the final
// ordered, non-overlapping plan. A nil ChargeStart sorts as -inf, a nil
// ChargeStop as +inf. Cleanup is idempotent.
func Cleanup(segments model.ChargePlan) model.ChargePlan {
	if len(segments) == 0 {
		return nil
	}
	segs := segments.Clone()
	sortSegments(segs)
	segs = consolidate(segs)
	if shift(segs) {
		segs = consolidate(segs)
	}
	return segs
}

// sortSegments orders by start ascending, stop descending, then by charge
// type priority so that higher-priority segments win ties.
func sortSegments(segs model.ChargePlan) {
	sort.SliceStable(segs, func(i, j int) bool {
		a, b := segs[i], segs[j]
		if c := compareTime(a.ChargeStart, b.ChargeStart, false); c != 0 {
			return c < 0
		}
		if c := compareTime(a.ChargeStop, b.ChargeStop, true); c != 0 {
			return c > 0
		}
		return a.ChargeType.Priority() < b.ChargeType.Priority()
	})
}

// compareTime compares two nullable instants. nilIsMax selects whether nil
// means +inf (stops) or -inf (starts).
func compareTime(a, b *time.Time, nilIsMax bool) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		if nilIsMax {
			return 1
		}
		return -1
	}
	if b == nil {
		if nilIsMax {
			return -1
		}
		return 1
	}
	switch {
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

// consolidate walks adjacent pairs, merging same-type or contained
// neighbours, pushing lower-level followers forward and truncating
// lower-level leaders.
func consolidate(segs model.ChargePlan) model.ChargePlan {
	for i := 0; i+1 < len(segs); {
		a, b := segs[i], segs[i+1]
		// b.start <= a.stop means the pair overlaps or touches.
		if !(compareTime(b.ChargeStart, a.ChargeStop, true) <= 0) {
			i++
			continue
		}
		bContained := compareTime(b.ChargeStop, a.ChargeStop, true) <= 0
		switch {
		case a.ChargeType == b.ChargeType || bContained:
			if compareTime(b.ChargeStop, a.ChargeStop, true) > 0 {
				a.ChargeStop = b.ChargeStop
			}
			if b.Level > a.Level {
				a.Level = b.Level
			}
			segs[i] = a
			segs = append(segs[:i+1], segs[i+2:]...)
			if i > 0 {
				i--
			}
		case a.Level >= b.Level:
			b.ChargeStart = a.ChargeStop
			segs[i+1] = b
			i++
		default:
			a.ChargeStop = b.ChargeStart
			segs[i] = a
			i++
		}
	}
	return segs
}

// shift delays short leading segments so they butt up against their
// successor, compacting idle gaps. Returns whether anything moved.
func shift(segs model.ChargePlan) bool {
	shifted := false
	for i := 0; i+1 < len(segs); i++ {
		a, b := segs[i], segs[i+1]
		if a.ChargeStart == nil || a.ChargeStop == nil || b.ChargeStart == nil {
			continue
		}
		gap := b.ChargeStart.Sub(*a.ChargeStop)
		room := a.ChargeStart.Sub(*a.ChargeStop) + maxShift
		s := gap
		if room < s {
			s = room
		}
		if s <= 0 {
			continue
		}
		if !a.ChargeStop.Add(s).Before(*b.ChargeStart) {
			stop := *b.ChargeStart
			start := a.ChargeStart.Add(s)
			a.ChargeStop = &stop
			a.ChargeStart = &start
			segs[i] = a
			shifted = true
		}
	}
	return shifted
}
