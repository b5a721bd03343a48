package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

// ReplanTrigger names what made a replan necessary.
type ReplanTrigger string

const (
	TriggerConnection ReplanTrigger = "connection"
	TriggerChargeStep ReplanTrigger = "charge_step"
	TriggerTripEnd    ReplanTrigger = "trip_end"
	TriggerLocation   ReplanTrigger = "location"
	TriggerPriceFeed  ReplanTrigger = "price_feed"
	TriggerManual     ReplanTrigger = "manual"
)

// ReplanRequested is published when ingestion crosses a boundary that
// invalidates the current plan.
type ReplanRequested struct {
	VehicleID uuid.UUID
	Trigger   ReplanTrigger
	Time      time.Time
}

// PlanUpdated is published after the planner persisted a reconciled plan.
type PlanUpdated struct {
	VehicleID   uuid.UUID
	Plan        model.ChargePlan
	SmartStatus string
	Time        time.Time
}

// ConnectionClosed is published when a charger is detached.
type ConnectionClosed struct {
	VehicleID   uuid.UUID
	LocationID  uuid.UUID
	ConnectedID uuid.UUID
	Time        time.Time
}

// PriceListUpdated is published after a price feed load.
type PriceListUpdated struct {
	PriceCode string
	LatestTs  time.Time
}
