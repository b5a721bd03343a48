// Package replan routes replan requests to the planner with per-vehicle
// serialization: one worker per vehicle drains a depth-one queue, so a newer
// request supersedes an older queued one while replans for different
// vehicles proceed in parallel.
package replan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/events"
	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/monitoring"
	"github.com/voltplan/voltplan/core/planlog"
	"github.com/voltplan/voltplan/core/store"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// PlanRefresher recomputes and persists the plan for one vehicle.
type PlanRefresher interface {
	RefreshVehicleChargePlan(ctx context.Context, vehicleID uuid.UUID) error
}

// Orchestrator owns the replan workers.
type Orchestrator struct {
	store   store.Store
	planner PlanRefresher
	log     logger.Logger
	bus     eventbus.EventBus
	sink    metrics.MetricsSink
	audit   planlog.Store

	mu      sync.Mutex
	workers map[uuid.UUID]chan events.ReplanTrigger
	closed  bool
	wg      sync.WaitGroup
}

// New creates an Orchestrator. bus, sink and audit may be nil.
func New(st store.Store, planner PlanRefresher, log logger.Logger, bus eventbus.EventBus, sink metrics.MetricsSink, audit planlog.Store) *Orchestrator {
	return &Orchestrator{
		store:   st,
		planner: planner,
		log:     log,
		bus:     bus,
		sink:    sink,
		audit:   audit,
		workers: map[uuid.UUID]chan events.ReplanTrigger{},
	}
}

// Refresh requests a replan for one vehicle.
func (o *Orchestrator) Refresh(ctx context.Context, vehicleID uuid.UUID) error {
	return o.enqueue(vehicleID, events.TriggerManual)
}

// RefreshTriggered requests a replan recording what caused it.
func (o *Orchestrator) RefreshTriggered(vehicleID uuid.UUID, trigger events.ReplanTrigger) error {
	return o.enqueue(vehicleID, trigger)
}

// RefreshAccount replans every vehicle of the account.
func (o *Orchestrator) RefreshAccount(ctx context.Context, accountID uuid.UUID) error {
	vehicles, err := o.store.AccountVehicles(ctx, accountID)
	if err != nil {
		return err
	}
	for _, v := range vehicles {
		if err := o.enqueue(v.ID, events.TriggerManual); err != nil {
			return err
		}
	}
	return nil
}

// PriceListRefreshed replans every vehicle currently at a location using the
// price code.
func (o *Orchestrator) PriceListRefreshed(ctx context.Context, priceCode string) error {
	vehicles, err := o.store.VehiclesByPriceCode(ctx, priceCode)
	if err != nil {
		return err
	}
	for _, v := range vehicles {
		if err := o.enqueue(v.ID, events.TriggerPriceFeed); err != nil {
			return err
		}
	}
	return nil
}

// enqueue hands the request to the vehicle's worker, superseding an already
// queued request.
func (o *Orchestrator) enqueue(vehicleID uuid.UUID, trigger events.ReplanTrigger) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	ch, ok := o.workers[vehicleID]
	if !ok {
		ch = make(chan events.ReplanTrigger, 1)
		o.workers[vehicleID] = ch
		o.wg.Add(1)
		go o.worker(vehicleID, ch)
	}
	// Non-blocking hand-off under the lock so Close cannot race the send.
	for {
		select {
		case ch <- trigger:
			o.mu.Unlock()
			if o.bus != nil {
				o.bus.Publish(events.ReplanRequested{VehicleID: vehicleID, Trigger: trigger, Time: time.Now().UTC()})
			}
			return nil
		default:
			// Queue full: the queued request is superseded by this one.
			select {
			case <-ch:
			default:
			}
		}
	}
}

// worker serializes replans for one vehicle.
func (o *Orchestrator) worker(vehicleID uuid.UUID, ch <-chan events.ReplanTrigger) {
	defer o.wg.Done()
	defer monitoring.Recover()
	for trigger := range ch {
		o.runOne(vehicleID, trigger)
	}
}

func (o *Orchestrator) runOne(vehicleID uuid.UUID, trigger events.ReplanTrigger) {
	start := time.Now()
	ctx := context.Background()
	err := o.planner.RefreshVehicleChargePlan(ctx, vehicleID)
	elapsed := time.Since(start)

	if err != nil {
		// The previous plan stays in place; the failure is surfaced, not
		// papered over with an empty plan.
		o.log.Errorf("replan %s (%s): %v", vehicleID, trigger, err)
		monitoring.CaptureException(err, map[string]string{
			"vehicle": vehicleID.String(),
			"trigger": string(trigger),
		})
	}

	segments := 0
	status := ""
	var published model.ChargePlan
	if v, verr := o.store.GetVehicle(ctx, vehicleID); verr == nil {
		segments = len(v.ChargePlan)
		status = v.SmartStatus
		published = v.ChargePlan
	}
	if o.sink != nil {
		_ = o.sink.RecordReplan(metrics.ReplanEvent{
			VehicleID: vehicleID,
			Trigger:   string(trigger),
			Segments:  segments,
			Duration:  elapsed,
			Err:       err,
			Time:      start.UTC(),
		})
	}
	if o.audit != nil {
		rec := planlog.Record{
			Timestamp:   start.UTC(),
			VehicleID:   vehicleID.String(),
			Trigger:     string(trigger),
			SmartStatus: status,
			DurationMs:  elapsed.Milliseconds(),
		}
		if err != nil {
			rec.Error = err.Error()
		} else {
			rec.Plan = published
		}
		if aerr := o.audit.Append(ctx, rec); aerr != nil {
			o.log.Warnf("plan audit append: %v", aerr)
		}
	}
}

// Close stops accepting requests and waits for in-flight replans.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for _, ch := range o.workers {
		close(ch)
	}
	o.mu.Unlock()
	o.wg.Wait()
}
