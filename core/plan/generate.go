package plan

import (
	"sort"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// Request describes one sub-plan the planner wants segments for.
type Request struct {
	TargetLevel int
	Type        model.ChargeType
	Comment     string
	// Before bounds how late charging may run; nil means unbounded.
	Before *time.Time
	// MaxPrice stops the walk at the first hour above this price; nil
	// disables the bound. Unscaled currency per kWh.
	MaxPrice *float64
	// TimeNeeded is the estimated charge duration from the current level
	// to TargetLevel.
	TimeNeeded time.Duration
}

// Generate allocates the needed charge time over the cheapest price hours
// available between now-1h and Before. Hours are visited in ascending price
// order; each contributes at most the remainder of its hour. Without any
// price data a single routine segment with no start runs from now for the
// full duration.
func Generate(prices []model.PricePoint, now time.Time, req Request) model.ChargePlan {
	if req.TimeNeeded <= 0 {
		return nil
	}
	if len(prices) == 0 {
		stop := now.Add(req.TimeNeeded)
		return model.ChargePlan{{
			ChargeStop: &stop,
			Level:      req.TargetLevel,
			ChargeType: model.ChargeRoutine,
			Comment:    req.Comment,
		}}
	}

	candidates := make([]model.PricePoint, 0, len(prices))
	cutoff := now.Add(-time.Hour)
	for _, p := range prices {
		if p.Ts.Before(cutoff) {
			continue
		}
		if req.Before != nil && !p.Ts.Before(*req.Before) {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Price != candidates[j].Price {
			return candidates[i].Price < candidates[j].Price
		}
		return candidates[i].Ts.Before(candidates[j].Ts)
	})

	var out model.ChargePlan
	timeLeft := req.TimeNeeded
	for _, p := range candidates {
		price := float64(p.Price) / model.PriceScale
		if req.MaxPrice != nil && price > *req.MaxPrice {
			break
		}
		tsStart := p.Ts
		if tsStart.Before(now) {
			tsStart = now
		}
		end := tsStart.Add(timeLeft)
		if hourEnd := p.Ts.Add(time.Hour); hourEnd.Before(end) {
			end = hourEnd
		}
		if req.Before != nil && req.Before.Before(end) {
			end = *req.Before
		}
		if !end.After(tsStart) {
			continue
		}
		start := p.Ts
		out = append(out, model.ChargePlanSegment{
			ChargeStart: &start,
			ChargeStop:  &end,
			Level:       req.TargetLevel,
			ChargeType:  req.Type,
			Comment:     req.Comment,
		})
		timeLeft -= end.Sub(tsStart)
		if timeLeft <= 0 {
			break
		}
	}
	return out
}
