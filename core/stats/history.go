// Package stats derives per-vehicle/location charging statistics from past
// connections and selects the price threshold the planner fills up at. The
// sweep replays history against each candidate threshold and keeps the one
// with the lowest cost per percent charged.
package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

// HistoryWindow bounds how far back connections feed the simulation.
const HistoryWindow = 21 * 24 * time.Hour

// priceIndex resolves hourly prices and rolling daily averages from one
// fetched price range.
type priceIndex struct {
	byHour    map[time.Time]float64
	avg7ByDay map[time.Time]float64
}

func newPriceIndex(points []model.PricePoint) *priceIndex {
	idx := &priceIndex{byHour: map[time.Time]float64{}, avg7ByDay: map[time.Time]float64{}}
	daySums := map[time.Time]struct {
		sum float64
		n   int
	}{}
	for _, p := range points {
		price := float64(p.Price) / model.PriceScale
		idx.byHour[p.Ts.Truncate(time.Hour)] = price
		day := p.Ts.Truncate(24 * time.Hour)
		agg := daySums[day]
		agg.sum += price
		agg.n++
		daySums[day] = agg
	}
	// 7-day rolling average ending at each day with data.
	for day := range daySums {
		var sum float64
		var n int
		for d := 0; d < 7; d++ {
			if agg, ok := daySums[day.Add(-time.Duration(d)*24*time.Hour)]; ok {
				sum += agg.sum
				n += agg.n
			}
		}
		if n > 0 {
			idx.avg7ByDay[day] = sum / float64(n)
		}
	}
	return idx
}

func (idx *priceIndex) hourPrice(hour time.Time) (float64, bool) {
	p, ok := idx.byHour[hour]
	return p, ok
}

func (idx *priceIndex) dayAvg7(ts time.Time) (float64, bool) {
	a, ok := idx.avg7ByDay[ts.Truncate(24*time.Hour)]
	return a, ok
}

// buildHistory turns the closed connections of the trailing window into
// simulation entries. Connections at other locations are flagged offsite:
// their level effect is kept but their hours are not chargeable.
func buildHistory(conns []model.Connection, idx *priceIndex, targetLocation uuid.UUID, avg7, avg21 float64) []model.HistoryEntry {
	spread := (avg7 - avg21) / 2
	entries := make([]model.HistoryEntry, 0, len(conns))
	for i, c := range conns {
		needed := 0
		if i+1 < len(conns) {
			needed = c.EndLevel - conns[i+1].StartLevel
		}
		if needed < 0 {
			needed = 0
		}
		e := model.HistoryEntry{
			ConnectedID: c.ID,
			StartLevel:  c.StartLevel,
			EndLevel:    c.EndLevel,
			Needed:      needed,
			Offsite:     c.LocationID != targetLocation,
		}
		if !e.Offsite {
			e.Hours = connectionHours(c, idx, avg7, spread)
		}
		entries = append(entries, e)
	}
	return entries
}

// connectionHours expands a connection into its hourly rows with overlap
// fractions and threshold candidates. The threshold denominator is the
// 7-day average of the hour's day corrected by the global 7/21-day spread.
func connectionHours(c model.Connection, idx *priceIndex, avg7, spread float64) []model.HistoryHour {
	if !c.EndTs.After(c.StartTs) {
		return nil
	}
	var hours []model.HistoryHour
	first := c.StartTs.Truncate(time.Hour)
	last := c.EndTs.Truncate(time.Hour)
	for h := first; !h.After(last); h = h.Add(time.Hour) {
		overlapStart := h
		if c.StartTs.After(overlapStart) {
			overlapStart = c.StartTs
		}
		overlapEnd := h.Add(time.Hour)
		if c.EndTs.Before(overlapEnd) {
			overlapEnd = c.EndTs
		}
		frac := overlapEnd.Sub(overlapStart).Seconds() / 3600
		if frac <= 0 {
			continue
		}
		price, ok := idx.hourPrice(h)
		if !ok {
			continue
		}
		dayAvg := avg7
		if a7, ok := idx.dayAvg7(h); ok {
			dayAvg = a7
		}
		denom := dayAvg + spread
		if denom == 0 {
			continue
		}
		hours = append(hours, model.HistoryHour{
			Hour:      h,
			Fraction:  frac,
			Price:     price,
			Threshold: price / denom,
		})
	}
	return hours
}
