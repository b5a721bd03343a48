package model

import (
	"time"

	"github.com/google/uuid"
)

// EventMapRow is the hourly per-vehicle activity aggregate. Upserts combine
// rows for the same hour with min/max/sum as appropriate.
type EventMapRow struct {
	VehicleID      uuid.UUID
	Hour           time.Time // truncated to the hour, UTC
	MinimumLevel   int
	MaximumLevel   int
	DrivenSeconds  int64
	DrivenMeters   int64
	ChargedSeconds int64
	ChargeEnergy   float64 // Wm
}

// Combine folds another row for the same hour into this one.
func (e *EventMapRow) Combine(o EventMapRow) {
	if o.MinimumLevel < e.MinimumLevel {
		e.MinimumLevel = o.MinimumLevel
	}
	if o.MaximumLevel > e.MaximumLevel {
		e.MaximumLevel = o.MaximumLevel
	}
	e.DrivenSeconds += o.DrivenSeconds
	e.DrivenMeters += o.DrivenMeters
	e.ChargedSeconds += o.ChargedSeconds
	e.ChargeEnergy += o.ChargeEnergy
}
