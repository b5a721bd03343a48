package model

import (
	"time"

	"github.com/google/uuid"
)

// MinTripDistanceM is the distance below which a finished trip is discarded
// when the vehicle arrives at a known location.
const MinTripDistanceM = 1000

// Trip is one movement between known locations (or away from any).
type Trip struct {
	ID                   uuid.UUID
	VehicleID            uuid.UUID
	StartTs              time.Time
	EndTs                time.Time
	StartLevel           int
	EndLevel             int
	StartLocationID      *uuid.UUID
	EndLocationID        *uuid.UUID
	StartOdometer        int64 // meters
	StartOutsideDeciTemp int
	Distance             int64 // meters
}
