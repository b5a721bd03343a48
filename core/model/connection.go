package model

import (
	"time"

	"github.com/google/uuid"
)

// Connection is one plug-in session at a known location. The row is mutated
// in place on every telemetry sample until the charger is detached and EndTs
// is finalized.
type Connection struct {
	ID         uuid.UUID
	VehicleID  uuid.UUID
	LocationID uuid.UUID
	Type       ChargerType
	StartTs    time.Time
	EndTs      time.Time
	StartLevel int
	EndLevel   int
	EnergyUsed float64 // Wm
	Cost       float64
	Saved      float64
	Connected  bool
}

// Charge is one active-drawing phase nested inside a Connection.
type Charge struct {
	ID          uuid.UUID
	ConnectedID uuid.UUID
	VehicleID   uuid.UUID
	LocationID  uuid.UUID
	Type        ChargerType
	StartTs     time.Time
	EndTs       time.Time
	StartLevel  int
	EndLevel    int
	StartAdded  float64 // Wm reported added at charge start
	EndAdded    float64 // Wm
	TargetLevel int
	Estimate    int     // minutes
	EnergyUsed  float64 // Wm
}

// ChargeCurrent is the per-active-charge scratch row the curve learner keeps
// between 1% level gains. Deleted when the charge terminates.
type ChargeCurrent struct {
	ChargeID         uuid.UUID
	StartTs          time.Time
	StartLevel       int
	StartAdded       float64 // Wm
	Powers           []float64
	OutsideDeciTemps []int
}
