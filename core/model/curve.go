package model

import "github.com/google/uuid"

// ChargeCurvePoint records how long one battery percent took to gain for a
// vehicle at a location, together with the conditions observed while it was
// gained. Upserted each time a charge crosses a 1% boundary.
type ChargeCurvePoint struct {
	VehicleID   uuid.UUID
	LocationID  uuid.UUID
	Level       int // 1..100, the percent that was completed
	Duration    int // seconds to gain this percent
	AvgDeciTemp int
	EnergyUsed  float64 // Wm drawn from the charger
	EnergyAdded float64 // Wm reported added to the battery
}
