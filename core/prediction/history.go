package prediction

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

// historyWeeks bounds how far back same-weekday disconnects are considered.
const historyWeeks = 6

// HistoryEngine predicts from the closed connections recorded at the target
// location.
type HistoryEngine struct {
	store store.Store
}

// NewHistoryEngine creates a predictor over the persistence gateway.
func NewHistoryEngine(st store.Store) *HistoryEngine {
	return &HistoryEngine{store: st}
}

// PredictDisconnect estimates the upcoming cycle from same-weekday
// disconnects of the past six weeks. The charge estimate is the larger of
// the recent 7-day mean and the 0.6 quantile of the historical window; the
// deadline is the 0.2 discrete quantile of historical end-of-charge times
// projected onto today. The deadline is not shifted here; the planner moves
// it a day forward when it falls before now plus half the charge duration.
func (e *HistoryEngine) PredictDisconnect(ctx context.Context, vehicle model.Vehicle, location model.Location, now time.Time) (*Routine, error) {
	since := now.Add(-historyWeeks * 7 * 24 * time.Hour)
	conns, err := e.store.ClosedConnections(ctx, vehicle.ID, since)
	if err != nil {
		return nil, fmt.Errorf("closed connections: %w", err)
	}

	var recentUsed []float64  // percent spent after connections of the last 7 days
	var weekdayUsed []float64 // same-weekday percent spent, full window
	var weekdayEnds []time.Time
	weekAgo := now.Add(-7 * 24 * time.Hour)
	for i, c := range conns {
		if c.LocationID != location.ID {
			continue
		}
		used := 0.0
		if i+1 < len(conns) {
			used = float64(c.EndLevel - conns[i+1].StartLevel)
		}
		if used < 0 {
			used = 0
		}
		if c.EndTs.After(weekAgo) {
			recentUsed = append(recentUsed, used)
		}
		if c.EndTs.Weekday() == now.Weekday() {
			weekdayUsed = append(weekdayUsed, used)
			weekdayEnds = append(weekdayEnds, c.EndTs)
		}
	}
	if len(weekdayUsed) == 0 || len(weekdayEnds) == 0 {
		return nil, nil
	}

	sort.Float64s(weekdayUsed)
	charge := stat.Quantile(0.6, stat.LinInterp, weekdayUsed, nil)
	if m := mean(recentUsed); m > charge {
		charge = m
	}
	if charge <= 0 {
		return nil, nil
	}

	before := quantileDiscTime(projectTimes(weekdayEnds, now), 0.2)
	return &Routine{Charge: charge, Before: before}, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// projectTimes moves historical instants onto today, keeping their time of
// day.
func projectTimes(ts []time.Time, now time.Time) []time.Time {
	day := now.Truncate(24 * time.Hour)
	out := make([]time.Time, len(ts))
	for i, t := range ts {
		out[i] = day.Add(t.Sub(t.Truncate(24 * time.Hour)))
	}
	return out
}

// quantileDiscTime is the discrete quantile: the smallest element at or
// above the requested rank.
func quantileDiscTime(ts []time.Time, q float64) time.Time {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	idx := int(math.Ceil(float64(len(ts))*q)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ts) {
		idx = len(ts) - 1
	}
	return ts[idx]
}
