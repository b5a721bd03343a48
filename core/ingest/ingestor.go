// Package ingest consumes vehicle telemetry samples and drives the
// connection, charge and trip state machines. A sample is folded into a
// single transactional commit; a bad sample is dropped whole and never
// corrupts the stored state.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/curve"
	"github.com/voltplan/voltplan/core/events"
	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// maxEventGap is the sanity bound on the gap between samples; longer gaps
// are not folded into the hourly event map.
const maxEventGap = 3 * time.Hour

// Replanner receives the replan requests ingestion produces.
type Replanner interface {
	Refresh(ctx context.Context, vehicleID uuid.UUID) error
}

// StatsInvalidator rebuilds the per-location statistics after a connection
// closes.
type StatsInvalidator interface {
	CreateNewStatsFor(ctx context.Context, vehicleID, locationID uuid.UUID) error
}

// Ingestor applies telemetry samples to the canonical vehicle state.
// Samples for one vehicle serialize on a vehicle-scoped lock so the
// load-compute-commit sequence is atomic per vehicle.
type Ingestor struct {
	store  store.Store
	log    logger.Logger
	replan Replanner
	stats  StatsInvalidator
	bus    eventbus.EventBus
	sink   metrics.MetricsSink

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// New creates an Ingestor. replan, stats and bus may be nil.
func New(st store.Store, log logger.Logger, replan Replanner, stats StatsInvalidator, bus eventbus.EventBus) *Ingestor {
	return &Ingestor{store: st, log: log, replan: replan, stats: stats, bus: bus, locks: map[uuid.UUID]*sync.Mutex{}}
}

// SetSink configures the observability sink samples are recorded into.
func (g *Ingestor) SetSink(sink metrics.MetricsSink) { g.sink = sink }

func (g *Ingestor) record(in model.UpdateVehicleDataInput, s sample, charging, dropped bool, now time.Time) {
	if g.sink == nil {
		return
	}
	_ = g.sink.RecordIngest(metrics.IngestEvent{
		VehicleID: in.ID,
		Driving:   s.driving,
		Charging:  charging,
		Connected: s.connected,
		Level:     s.level,
		PowerW:    s.powerW,
		Dropped:   dropped,
		Time:      now,
	})
}

func (g *Ingestor) vehicleLock(id uuid.UUID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	return l
}

// sample carries one telemetry input converted to storage units.
type sample struct {
	latMicro, lonMicro int64
	level              int
	odometer           int64
	outsideDeci        int
	insideDeci         int
	climate            bool
	driving            bool
	connected          bool
	chargerType        model.ChargerType
	chargingTo         *int
	estimate           int
	powerW             float64
	addedWm            float64
	hasAdded           bool
}

func convert(in model.UpdateVehicleDataInput) sample {
	s := sample{
		latMicro:    model.MicroDeg(in.Latitude),
		lonMicro:    model.MicroDeg(in.Longitude),
		level:       in.BatteryLevel,
		odometer:    in.Odometer,
		outsideDeci: model.DeciTemp(in.OutsideTemperature),
		insideDeci:  model.DeciTemp(in.InsideTemperature),
		climate:     in.ClimateControl,
		driving:     in.IsDriving,
		connected:   in.ConnectedCharger != model.ChargerNone,
		chargerType: in.ConnectedCharger,
		chargingTo:  in.ChargingTo,
	}
	if in.EstimatedTimeLeft != nil {
		s.estimate = *in.EstimatedTimeLeft
	}
	if in.PowerUse != nil {
		s.powerW = *in.PowerUse * 1000
	}
	if in.EnergyAdded != nil {
		// kWh -> Wm
		s.addedWm = *in.EnergyAdded * 60000
		s.hasAdded = true
	}
	return s
}

// UpdateVehicleData processes one telemetry sample at the given instant.
// Processing is deterministic and idempotent per (vehicle, now): replaying
// the same sample against the same prior state commits the same result.
func (g *Ingestor) UpdateVehicleData(ctx context.Context, in model.UpdateVehicleDataInput, now time.Time) error {
	lock := g.vehicleLock(in.ID)
	lock.Lock()
	defer lock.Unlock()

	now = now.UTC()
	s := convert(in)
	v, err := g.store.GetVehicle(ctx, in.ID)
	if err != nil {
		g.record(in, s, false, true, now)
		return fmt.Errorf("load vehicle: %w", err)
	}

	loc, err := g.store.LookupKnownLocation(ctx, v.AccountID, s.latMicro, s.lonMicro)
	if err != nil {
		return fmt.Errorf("lookup location: %w", err)
	}
	var currentLocation *uuid.UUID
	if loc != nil {
		currentLocation = &loc.ID
	}

	prev := v
	gap := now.Sub(prev.Updated)

	v.LatMicroDeg = s.latMicro
	v.LonMicroDeg = s.lonMicro
	v.Level = s.level
	v.Odometer = s.odometer
	v.OutsideDeciTemp = s.outsideDeci
	v.InsideDeciTemp = s.insideDeci
	v.ClimateOn = s.climate
	v.Driving = s.driving
	v.Connected = s.connected
	v.LocationID = currentLocation
	v.Updated = now

	commit := store.VehicleDataCommit{}
	doReplan := false
	var closedAt *uuid.UUID // location of a connection that just closed

	var chargeDeltaUsed float64
	charging := false

	// Connection state machine.
	if s.connected || prev.ConnectedID != nil {
		conn, charge, err := g.advanceConnection(ctx, &v, prev, s, loc, now, &commit, &doReplan, &chargeDeltaUsed, &charging)
		if err != nil {
			return err
		}
		if !s.connected && conn != nil {
			// Charger detached: close out and forget the connection.
			conn.Connected = false
			conn.EndTs = now
			conn.EndLevel = s.level
			v.ConnectedID = nil
			v.ChargePlan = nil
			closedAt = &conn.LocationID
			if g.bus != nil {
				g.bus.Publish(events.ConnectionClosed{
					VehicleID:   v.ID,
					LocationID:  conn.LocationID,
					ConnectedID: conn.ID,
					Time:        now,
				})
			}
		}
		commit.Connection = conn
		commit.Charge = charge
	}

	// Trip state machine.
	locationChanged := !uuidPtrEqual(prev.LocationID, currentLocation)
	if locationChanged || s.driving || prev.TripID != nil {
		if err := g.advanceTrip(ctx, &v, prev, s, currentLocation, now, &commit, &doReplan); err != nil {
			return err
		}
	}
	if locationChanged && currentLocation != nil {
		doReplan = true
	}

	// Hourly event map, bounded against clock jumps and offline gaps.
	if gap > 0 && gap < maxEventGap {
		row := &model.EventMapRow{
			VehicleID:    v.ID,
			Hour:         now.Truncate(time.Hour),
			MinimumLevel: s.level,
			MaximumLevel: s.level,
		}
		if s.driving {
			row.DrivenSeconds = int64(gap / time.Second)
			if d := s.odometer - prev.Odometer; d > 0 {
				row.DrivenMeters = d
			}
		}
		if charging {
			row.ChargedSeconds = int64(gap / time.Second)
			row.ChargeEnergy = chargeDeltaUsed
		}
		commit.EventMap = row
	}

	commit.Vehicle = v
	if err := g.store.CommitVehicleData(ctx, commit); err != nil {
		g.record(in, s, charging, true, now)
		return fmt.Errorf("commit sample: %w", err)
	}
	g.record(in, s, charging, false, now)

	if closedAt != nil && g.stats != nil {
		if err := g.stats.CreateNewStatsFor(ctx, v.ID, *closedAt); err != nil {
			g.log.Warnf("stats refresh after disconnect: %v", err)
		}
	}
	if doReplan && g.replan != nil {
		if err := g.replan.Refresh(ctx, v.ID); err != nil {
			g.log.Warnf("replan request: %v", err)
		}
	}
	return nil
}

// advanceConnection opens or updates the connection and nested charge for a
// connected sample. It returns the rows to commit.
func (g *Ingestor) advanceConnection(ctx context.Context, v *model.Vehicle, prev model.Vehicle, s sample, loc *model.Location, now time.Time, commit *store.VehicleDataCommit, doReplan *bool, deltaUsedOut *float64, chargingOut *bool) (*model.Connection, *model.Charge, error) {
	var conn model.Connection
	if prev.ConnectedID == nil {
		if loc == nil {
			// A charger attached away from any known location is out of
			// planning scope; keep the vehicle row only.
			return nil, nil, nil
		}
		conn = model.Connection{
			ID:         uuid.New(),
			VehicleID:  v.ID,
			LocationID: loc.ID,
			Type:       s.chargerType,
			StartTs:    now,
			StartLevel: s.level,
			Connected:  true,
		}
		v.ConnectedID = &conn.ID
		*doReplan = true
	} else {
		var err error
		conn, err = g.store.GetConnection(ctx, *prev.ConnectedID)
		if err != nil {
			return nil, nil, fmt.Errorf("load connection: %w", err)
		}
	}

	var charge *model.Charge
	if s.chargingTo != nil || prev.ChargeID != nil {
		var err error
		charge, err = g.advanceCharge(ctx, v, prev, s, conn.LocationID, now, commit, doReplan, deltaUsedOut)
		if err != nil {
			return nil, nil, err
		}
		if charge != nil {
			conn.EnergyUsed += *deltaUsedOut
			cost, saved, err := g.priceDeltas(ctx, conn, *deltaUsedOut, now)
			if err != nil {
				g.log.Warnf("price delta: %v", err)
			} else {
				conn.Cost += cost
				conn.Saved += saved
			}
		}
		*chargingOut = s.chargingTo != nil
	}

	// The charger may report charging done: terminate the nested charge.
	if s.chargingTo == nil && prev.ChargeID != nil && charge != nil {
		charge.EndTs = now
		charge.EndLevel = s.level
		del := charge.ID
		commit.DeleteChargeCurrent = &del
		v.ChargeID = nil
	}

	conn.EndTs = now
	conn.EndLevel = s.level
	conn.Connected = s.connected
	return &conn, charge, nil
}

// advanceCharge opens or accumulates the active charge and feeds the curve
// learner.
func (g *Ingestor) advanceCharge(ctx context.Context, v *model.Vehicle, prev model.Vehicle, s sample, locationID uuid.UUID, now time.Time, commit *store.VehicleDataCommit, doReplan *bool, deltaUsedOut *float64) (*model.Charge, error) {
	if prev.ChargeID == nil {
		if s.chargingTo == nil {
			return nil, nil
		}
		ch := model.Charge{
			ID:          uuid.New(),
			ConnectedID: *v.ConnectedID,
			VehicleID:   v.ID,
			LocationID:  locationID,
			Type:        s.chargerType,
			StartTs:     now,
			EndTs:       now,
			StartLevel:  s.level,
			EndLevel:    s.level,
			StartAdded:  s.addedWm,
			EndAdded:    s.addedWm,
			TargetLevel: *s.chargingTo,
			Estimate:    s.estimate,
		}
		v.ChargeID = &ch.ID
		commit.ChargeCurrent = &model.ChargeCurrent{
			ChargeID:   ch.ID,
			StartTs:    now,
			StartLevel: s.level,
			StartAdded: s.addedWm,
		}
		*doReplan = true
		return &ch, nil
	}

	ch, err := g.store.GetCharge(ctx, *prev.ChargeID)
	if err != nil {
		return nil, fmt.Errorf("load charge: %w", err)
	}
	deltaTime := now.Sub(ch.EndTs).Seconds()
	deltaUsed := s.powerW * deltaTime / 60
	if deltaUsed < 0 {
		deltaUsed = 0
	}
	*deltaUsedOut = deltaUsed
	ch.EnergyUsed += deltaUsed

	cc, err := g.store.GetChargeCurrent(ctx, ch.ID)
	if err == nil {
		next, point := curve.Advance(cc, ch.StartLevel, s.level, s.powerW, s.addedWm, s.outsideDeci, now)
		commit.ChargeCurrent = &next
		if point != nil {
			point.VehicleID = v.ID
			point.LocationID = locationID
			commit.CurvePoint = point
			*doReplan = true
		}
	} else if !store.IsNotFound(err) {
		return nil, fmt.Errorf("load charge current: %w", err)
	}
	if s.level != prev.Level {
		*doReplan = true
	}

	ch.EndTs = now
	ch.EndLevel = s.level
	if s.hasAdded {
		ch.EndAdded = s.addedWm
	}
	if s.chargingTo != nil {
		ch.TargetLevel = *s.chargingTo
	}
	ch.Estimate = s.estimate
	return &ch, nil
}

// priceDeltas prices the energy drawn since the previous sample against the
// current tariff (cost) and against the tariff of the virtual time-shifted
// window that charging immediately at plug-in would have used (saved). The
// virtual offset accumulates across all charges of the connection.
func (g *Ingestor) priceDeltas(ctx context.Context, conn model.Connection, deltaUsed float64, now time.Time) (cost, saved float64, err error) {
	if deltaUsed <= 0 {
		return 0, 0, nil
	}
	loc, err := g.store.GetLocation(ctx, conn.LocationID)
	if err != nil {
		return 0, 0, err
	}
	priceNow, err := g.store.PriceAt(ctx, loc.PriceCode, now)
	if err != nil {
		if store.IsNotFound(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	charges, err := g.store.ConnectionCharges(ctx, conn.ID)
	if err != nil {
		return 0, 0, err
	}
	var offset time.Duration
	for _, ch := range charges {
		end := ch.EndTs
		if end.After(now) {
			end = now
		}
		if end.After(ch.StartTs) {
			offset += end.Sub(ch.StartTs)
		}
	}
	priceThen, err := g.store.PriceAt(ctx, loc.PriceCode, conn.StartTs.Add(offset))
	if err != nil {
		if store.IsNotFound(err) {
			priceThen = priceNow
		} else {
			return 0, 0, err
		}
	}
	kwh := deltaUsed / 60000
	cost = kwh * float64(priceNow.Price) / model.PriceScale
	saved = kwh * float64(priceThen.Price-priceNow.Price) / model.PriceScale
	return cost, saved, nil
}

// advanceTrip opens, updates and closes the trip state machine.
func (g *Ingestor) advanceTrip(ctx context.Context, v *model.Vehicle, prev model.Vehicle, s sample, currentLocation *uuid.UUID, now time.Time, commit *store.VehicleDataCommit, doReplan *bool) error {
	var trip model.Trip
	if prev.TripID == nil {
		trip = model.Trip{
			ID:                   uuid.New(),
			VehicleID:            v.ID,
			StartTs:              now,
			StartLevel:           prev.Level,
			StartLocationID:      prev.LocationID,
			StartOdometer:        prev.Odometer,
			StartOutsideDeciTemp: s.outsideDeci,
		}
		v.TripID = &trip.ID
	} else {
		var err error
		trip, err = g.store.GetTrip(ctx, *prev.TripID)
		if err != nil {
			return fmt.Errorf("load trip: %w", err)
		}
	}

	trip.EndTs = now
	trip.EndLevel = s.level
	trip.Distance = s.odometer - trip.StartOdometer
	if trip.Distance < 0 {
		trip.Distance = 0
	}

	closes := !s.driving && (currentLocation != nil || s.connected)
	if closes {
		trip.EndLocationID = currentLocation
		v.TripID = nil
		*doReplan = true
		if trip.Distance < model.MinTripDistanceM {
			// Short shuffles around the driveway are noise, not trips.
			del := trip.ID
			commit.DeleteTrip = &del
			return nil
		}
	}
	commit.Trip = &trip
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
