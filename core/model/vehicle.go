package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChargerType identifies the kind of charger a vehicle is connected to.
type ChargerType string

const (
	ChargerAC   ChargerType = "ac"
	ChargerDC   ChargerType = "dc"
	ChargerNone ChargerType = ""
)

// ScheduledTrip is a user-announced departure the planner prepares for.
type ScheduledTrip struct {
	Level int       `json:"level"`
	Time  time.Time `json:"time"`
}

// Vehicle is the canonical vehicle row. It carries both user configuration
// (charge bounds, anxiety, scheduled trip) and the latest telemetry-derived
// state. connected_id is set iff a charger is attached; charge_id only while
// the car is actively drawing; trip_id while moving or off any known location.
type Vehicle struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	Name            string
	MinimumCharge   int // percent
	MaximumCharge   int // percent
	AnxietyLevel    int // 0, 1 or 2
	Trip            *ScheduledTrip
	PausedUntil     *time.Time
	LocationID      *uuid.UUID
	LatMicroDeg     int64
	LonMicroDeg     int64
	Level           int   // battery percent
	Odometer        int64 // meters
	OutsideDeciTemp int
	InsideDeciTemp  int
	ClimateOn       bool
	Driving         bool
	Connected       bool
	ConnectedID     *uuid.UUID
	ChargeID        *uuid.UUID
	TripID          *uuid.UUID
	ChargePlan      ChargePlan
	SmartStatus     string
	Status          string
	Updated         time.Time
	ProviderData    json.RawMessage
}

// Validate checks the configurable charge bounds.
func (v Vehicle) Validate() error {
	if v.MinimumCharge < 0 || v.MaximumCharge > 100 || v.MinimumCharge > v.MaximumCharge {
		return fmt.Errorf("charge bounds out of range: min=%d max=%d", v.MinimumCharge, v.MaximumCharge)
	}
	if v.AnxietyLevel < 0 || v.AnxietyLevel > 2 {
		return fmt.Errorf("anxiety level out of range: %d", v.AnxietyLevel)
	}
	return nil
}

// UpdateVehicleDataInput is one telemetry sample as delivered by a provider
// adapter. Temperatures are in degrees Celsius, coordinates in degrees.
type UpdateVehicleDataInput struct {
	ID                 uuid.UUID   `json:"id"`
	Latitude           float64     `json:"latitude"`
	Longitude          float64     `json:"longitude"`
	BatteryLevel       int         `json:"batteryLevel"`
	Odometer           int64       `json:"odometer"`
	OutsideTemperature float64     `json:"outsideTemperature"`
	InsideTemperature  float64     `json:"insideTemperature"`
	ClimateControl     bool        `json:"climateControl"`
	IsDriving          bool        `json:"isDriving"`
	ConnectedCharger   ChargerType `json:"connectedCharger"`
	ChargingTo         *int        `json:"chargingTo,omitempty"`
	EstimatedTimeLeft  *int        `json:"estimatedTimeLeft,omitempty"` // minutes
	PowerUse           *float64    `json:"powerUse,omitempty"`          // kW
	EnergyAdded        *float64    `json:"energyAdded,omitempty"`       // kWh
}

// MicroDeg converts degrees to the stored integer micro-degree representation.
func MicroDeg(deg float64) int64 {
	if deg < 0 {
		return int64(deg*1e6 - 0.5)
	}
	return int64(deg*1e6 + 0.5)
}

// DeciTemp converts degrees Celsius to stored deci-degrees.
func DeciTemp(c float64) int {
	if c < 0 {
		return int(c*10 - 0.5)
	}
	return int(c*10 + 0.5)
}
