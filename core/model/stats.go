package model

import (
	"time"

	"github.com/google/uuid"
)

// CurrentStats is the cached per-vehicle/location simulation result. A row is
// stale as soon as PriceListTs differs from the latest price timestamp of the
// location's price code.
type CurrentStats struct {
	ID               uuid.UUID
	VehicleID        uuid.UUID
	LocationID       uuid.UUID
	PriceListTs      time.Time
	LevelChargeTime  *float64 // seconds per percent, nil while unlearned
	WeeklyAvg7Price  float64
	WeeklyAvg21Price float64
	Threshold        int // percent ratio, ~0..200
}

// HistoryHour is one hour of a past connection with its overlap fraction and
// the price-derived threshold candidate for that hour.
type HistoryHour struct {
	Hour      time.Time
	Fraction  float64 // (0,1] share of the hour the connection covered
	Price     float64 // currency per kWh, unscaled
	Threshold float64 // price relative to the adjusted 7-day average
}

// HistoryEntry is one past connection prepared for threshold simulation.
// Offsite entries keep their level effect but contribute no chargeable hours.
type HistoryEntry struct {
	ConnectedID uuid.UUID
	StartLevel  int
	EndLevel    int
	Needed      int // percent spent before the next plug-in
	Offsite     bool
	Hours       []HistoryHour
}
