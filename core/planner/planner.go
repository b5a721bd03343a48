// Package planner assembles the per-vehicle charge plan: emergency floor,
// predicted routine need, comfort top-up, scheduled trips and cheap-hour
// fill, reconciled into one ordered sequence of segments.
package planner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/curve"
	"github.com/voltplan/voltplan/core/events"
	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/plan"
	"github.com/voltplan/voltplan/core/prediction"
	"github.com/voltplan/voltplan/core/store"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// Smart status values published on the vehicle row.
const (
	StatusSmart       = "Smart charging enabled"
	StatusLearning    = "Smart charging disabled (still learning)"
	StatusCalibrating = "Charge calibration"
	StatusPaused      = "Smart charging paused"
)

// planHorizon bounds how far ahead prices are considered when no deadline
// applies.
const planHorizon = 36 * time.Hour

// tripMargin is subtracted from the departure so the top-up lands before it.
const tripMargin = 15 * time.Minute

// StatsProvider yields the simulation-backed statistics for a pair.
type StatsProvider interface {
	CurrentStats(ctx context.Context, vehicle model.Vehicle, location model.Location) (*model.CurrentStats, error)
}

// Planner builds and persists charge plans.
type Planner struct {
	store store.Store
	stats StatsProvider
	pred  prediction.Engine
	log   logger.Logger
	bus   eventbus.EventBus
	now   func() time.Time
}

// New creates a Planner. bus may be nil; nowFn may be nil for wall time.
func New(st store.Store, stats StatsProvider, pred prediction.Engine, log logger.Logger, bus eventbus.EventBus, nowFn func() time.Time) *Planner {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Planner{store: st, stats: stats, pred: pred, log: log, bus: bus, now: nowFn}
}

// RefreshVehicleChargePlan recomputes and persists the plan for one vehicle.
// On failure the previously published plan stays untouched.
func (p *Planner) RefreshVehicleChargePlan(ctx context.Context, vehicleID uuid.UUID) error {
	now := p.now().UTC()
	v, err := p.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("load vehicle: %w", err)
	}

	if v.LocationID == nil {
		// Away from every known location there is nothing to plan against.
		return p.publish(ctx, v, v.ChargePlan, "", now)
	}
	if v.PausedUntil != nil && now.Before(*v.PausedUntil) {
		return p.publish(ctx, v, nil, StatusPaused, now)
	}

	loc, err := p.store.GetLocation(ctx, *v.LocationID)
	if err != nil {
		return fmt.Errorf("load location: %w", err)
	}
	if v.Trip != nil && now.After(v.Trip.Time.Add(time.Hour)) {
		v.Trip = nil
		if err := p.store.PutVehicle(ctx, v); err != nil {
			return fmt.Errorf("clear expired trip: %w", err)
		}
	}
	curvePoints, err := p.store.GetChargeCurve(ctx, v.ID, loc.ID)
	if err != nil {
		return fmt.Errorf("load charge curve: %w", err)
	}

	// An in-progress emergency segment survives replans until the floor
	// is regained.
	var segs model.ChargePlan
	for _, s := range v.ChargePlan {
		if s.ChargeStart == nil && v.Level < v.MinimumCharge+1 {
			segs = append(segs, s)
		}
	}

	// A learned curve that never reached 100% cannot answer full-range
	// duration queries; a one-shot calibration charge replaces the plan.
	if v.Level < v.MaximumCharge && len(curvePoints) > 0 && curve.MaxLevel(curvePoints) < 100 {
		calib := model.ChargePlan{{Level: 100, ChargeType: model.ChargeCalibrate, Comment: "Charge calibration"}}
		return p.publish(ctx, v, calib, StatusCalibrating, now)
	}

	if v.Level < v.MinimumCharge {
		stop := now.Add(curve.Duration(curvePoints, v.Level, v.MinimumCharge))
		segs = append(segs, model.ChargePlanSegment{
			ChargeStop: &stop,
			Level:      v.MinimumCharge,
			ChargeType: model.ChargeMinimum,
			Comment:    "emergency charge",
		})
	}

	st, err := p.stats.CurrentStats(ctx, v, loc)
	if err != nil {
		// Degrade to learning mode rather than failing the replan.
		p.log.Warnf("stats for %s@%s: %v", v.ID, loc.ID, err)
		st = nil
	}

	var routine *prediction.Routine
	if st != nil && st.LevelChargeTime != nil {
		routine, err = p.pred.PredictDisconnect(ctx, v, loc, now)
		if err != nil {
			p.log.Warnf("routine prediction for %s: %v", v.ID, err)
			routine = nil
		}
	}

	if st == nil || st.LevelChargeTime == nil || routine == nil {
		// Still learning: fill to the ceiling and come back when the
		// history can carry a prediction. Scheduled trips still apply.
		stop := now.Add(curve.Duration(curvePoints, v.Level, v.MaximumCharge))
		segs = append(segs, model.ChargePlanSegment{
			ChargeStop: &stop,
			Level:      v.MaximumCharge,
			ChargeType: model.ChargeFill,
			Comment:    "learning",
		})
		segs = p.appendTrip(ctx, v, loc, curvePoints, segs, now, nil)
		return p.publish(ctx, v, plan.Cleanup(segs), StatusLearning, now)
	}

	minimumLevel := int(math.Round(float64(v.MinimumCharge) + routine.Charge + 5))
	if minimumLevel > v.MaximumCharge {
		minimumLevel = v.MaximumCharge
	}
	before := routine.Before
	if before.Before(now.Add(curve.Duration(curvePoints, v.Level, minimumLevel) / 2)) {
		before = before.Add(24 * time.Hour)
	}

	segs = append(segs, p.generate(ctx, loc, now, plan.Request{
		TargetLevel: minimumLevel,
		Type:        model.ChargeRoutine,
		Comment:     "routine charge",
		Before:      &before,
		TimeNeeded:  curve.Duration(curvePoints, v.Level, minimumLevel),
	})...)

	if v.AnxietyLevel >= 1 {
		target := v.MaximumCharge
		if v.AnxietyLevel == 1 {
			target = (minimumLevel + v.MaximumCharge) / 2
		}
		segs = append(segs, p.generate(ctx, loc, now, plan.Request{
			TargetLevel: target,
			Type:        model.ChargePrefered,
			Comment:     "charge setting",
			Before:      &before,
			TimeNeeded:  curve.Duration(curvePoints, v.Level, target),
		})...)
	}

	disconnect := before
	segs = p.appendTrip(ctx, v, loc, curvePoints, segs, now, &disconnect)

	average := st.WeeklyAvg7Price + (st.WeeklyAvg7Price-st.WeeklyAvg21Price)/2
	thresholdPrice := average * float64(st.Threshold) / 100
	segs = append(segs, p.generate(ctx, loc, now, plan.Request{
		TargetLevel: v.MaximumCharge,
		Type:        model.ChargeFill,
		Comment:     "low price",
		Before:      &disconnect,
		MaxPrice:    &thresholdPrice,
		TimeNeeded:  curve.Duration(curvePoints, v.Level, v.MaximumCharge),
	})...)

	return p.publish(ctx, v, plan.Cleanup(segs), StatusSmart, now)
}

// appendTrip adds the scheduled-trip sub-plan when a departure is inside the
// planning window. disconnect, when given, is raised to the top-up start.
func (p *Planner) appendTrip(ctx context.Context, v model.Vehicle, loc model.Location, curvePoints []model.ChargeCurvePoint, segs model.ChargePlan, now time.Time, disconnect *time.Time) model.ChargePlan {
	trip := v.Trip
	if trip == nil {
		return segs
	}
	if now.Before(trip.Time.Add(-planHorizon)) {
		return segs
	}

	departLevel := trip.Level
	prepareLevel := departLevel
	if prepareLevel > v.MaximumCharge {
		prepareLevel = v.MaximumCharge
	}
	if v.Level > prepareLevel {
		prepareLevel = v.Level
	}
	topupTime := curve.Duration(curvePoints, prepareLevel, departLevel)
	if topupTime < 0 {
		topupTime = 0
	}
	topupStart := trip.Time.Add(-tripMargin - topupTime)

	segs = append(segs, p.generate(ctx, loc, now, plan.Request{
		TargetLevel: prepareLevel,
		Type:        model.ChargeTrip,
		Comment:     "upcoming trip",
		Before:      &topupStart,
		TimeNeeded:  curve.Duration(curvePoints, v.Level, prepareLevel),
	})...)
	if topupTime > 0 {
		start := topupStart
		segs = append(segs, model.ChargePlanSegment{
			ChargeStart: &start,
			Level:       departLevel,
			ChargeType:  model.ChargeTrip,
			Comment:     "topping up before trip",
		})
	}
	if disconnect != nil && topupStart.After(*disconnect) {
		*disconnect = topupStart
	}
	return segs
}

// generate fetches the price window for the location and allocates the
// requested charge time over its cheapest hours.
func (p *Planner) generate(ctx context.Context, loc model.Location, now time.Time, req plan.Request) model.ChargePlan {
	horizon := now.Add(planHorizon)
	if req.Before != nil && req.Before.After(now) && req.Before.Before(horizon) {
		horizon = *req.Before
	}
	prices, err := p.store.PricesInRange(ctx, loc.PriceCode, now.Add(-time.Hour), horizon)
	if err != nil {
		p.log.Warnf("price window for %s: %v", loc.PriceCode, err)
		prices = nil
	}
	return plan.Generate(prices, now, req)
}

// publish persists the reconciled plan and announces it on the bus. An
// empty plan is stored as null, meaning no action required.
func (p *Planner) publish(ctx context.Context, v model.Vehicle, segs model.ChargePlan, smartStatus string, now time.Time) error {
	if len(segs) == 0 {
		segs = nil
	}
	if err := p.store.SetChargePlan(ctx, v.ID, segs, smartStatus); err != nil {
		return fmt.Errorf("persist plan: %w", err)
	}
	if p.bus != nil {
		p.bus.Publish(events.PlanUpdated{
			VehicleID:   v.ID,
			Plan:        segs,
			SmartStatus: smartStatus,
			Time:        now,
		})
	}
	p.log.Debugw("plan published", map[string]any{
		"vehicle":  v.ID.String(),
		"segments": len(segs),
		"status":   smartStatus,
	})
	return nil
}
