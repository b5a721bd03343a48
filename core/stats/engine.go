package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

// DefaultThreshold is stored when no sweep candidate produced a valid run.
const DefaultThreshold = 100

// Engine computes and caches CurrentStats rows.
type Engine struct {
	store store.Store
	log   logger.Logger
	now   func() time.Time
}

// NewEngine creates a statistics engine. nowFn may be nil to use wall time.
func NewEngine(st store.Store, log logger.Logger, nowFn func() time.Time) *Engine {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{store: st, log: log, now: nowFn}
}

// CurrentStats returns the cached stats row if it is still aligned with the
// latest price timestamp of the location, recomputing it otherwise.
func (e *Engine) CurrentStats(ctx context.Context, vehicle model.Vehicle, location model.Location) (*model.CurrentStats, error) {
	latest, err := e.store.LatestPriceTs(ctx, location.PriceCode)
	if err != nil && !store.IsNotFound(err) {
		return nil, fmt.Errorf("latest price ts: %w", err)
	}
	cached, err := e.store.LatestStats(ctx, vehicle.ID, location.ID)
	if err != nil {
		return nil, fmt.Errorf("latest stats: %w", err)
	}
	if cached != nil && cached.PriceListTs.Equal(latest) {
		return cached, nil
	}
	return e.CreateNewStats(ctx, vehicle, location)
}

// CreateNewStats rebuilds the stats row for the pair: median level charge
// time from the learned curve, 7/21-day price averages and the threshold
// sweep over the trailing three weeks of closed connections.
func (e *Engine) CreateNewStats(ctx context.Context, vehicle model.Vehicle, location model.Location) (*model.CurrentStats, error) {
	now := e.now()

	curvePoints, err := e.store.GetChargeCurve(ctx, vehicle.ID, location.ID)
	if err != nil {
		return nil, fmt.Errorf("charge curve: %w", err)
	}
	levelChargeTime := medianDuration(curvePoints)

	latestTs, err := e.store.LatestPriceTs(ctx, location.PriceCode)
	if err != nil && !store.IsNotFound(err) {
		return nil, fmt.Errorf("latest price ts: %w", err)
	}
	pricePoints, err := e.store.PricesInRange(ctx, location.PriceCode, now.Add(-HistoryWindow), now.Add(48*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("price range: %w", err)
	}
	avg7 := meanPrice(pricePoints, now.Add(-7*24*time.Hour), now)
	avg21 := meanPrice(pricePoints, now.Add(-HistoryWindow), now)

	threshold := DefaultThreshold
	if levelChargeTime != nil && len(pricePoints) > 0 {
		since := now.Add(-HistoryWindow)
		if earliest := pricePoints[0].Ts; earliest.After(since) {
			since = earliest
		}
		conns, err := e.store.ClosedConnections(ctx, vehicle.ID, since)
		if err != nil {
			return nil, fmt.Errorf("closed connections: %w", err)
		}
		idx := newPriceIndex(pricePoints)
		entries := buildHistory(conns, idx, location.ID, avg7, avg21)
		if bestT, ok := sweep(entries, vehicle.MinimumCharge, vehicle.MaximumCharge, *levelChargeTime); ok {
			threshold = int(math.Round(bestT * 100))
		}
	}

	st := model.CurrentStats{
		ID:               uuid.New(),
		VehicleID:        vehicle.ID,
		LocationID:       location.ID,
		PriceListTs:      latestTs,
		LevelChargeTime:  levelChargeTime,
		WeeklyAvg7Price:  avg7,
		WeeklyAvg21Price: avg21,
		Threshold:        threshold,
	}
	if err := e.store.PutStats(ctx, st); err != nil {
		return nil, fmt.Errorf("put stats: %w", err)
	}
	e.log.Debugw("stats rebuilt", map[string]any{
		"vehicle":   vehicle.ID.String(),
		"location":  location.ID.String(),
		"threshold": threshold,
	})
	return &st, nil
}

// medianDuration is the continuous median of the learned per-percent
// durations, nil when the curve is empty.
func medianDuration(points []model.ChargeCurvePoint) *float64 {
	if len(points) == 0 {
		return nil
	}
	durations := make([]float64, len(points))
	for i, p := range points {
		durations[i] = float64(p.Duration)
	}
	sort.Float64s(durations)
	n := len(durations)
	m := durations[n/2]
	if n%2 == 0 {
		m = (durations[n/2-1] + durations[n/2]) / 2
	}
	return &m
}

func meanPrice(points []model.PricePoint, from, to time.Time) float64 {
	var sum float64
	var n int
	for _, p := range points {
		if p.Ts.Before(from) || !p.Ts.Before(to) {
			continue
		}
		sum += float64(p.Price) / model.PriceScale
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
