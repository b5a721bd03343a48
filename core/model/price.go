package model

import "time"

// PriceScale is the fixed-point factor applied to stored prices: a stored
// price of 125000 means 1.25 currency units per kWh.
const PriceScale = 100000

// PricePoint is one hour-aligned time-of-use price for a price area.
type PricePoint struct {
	PriceCode string
	Ts        time.Time // hour aligned, UTC
	Price     int64     // currency per kWh, scaled by PriceScale
}

// PriceUpdate is the ingress shape of one price point before scaling.
type PriceUpdate struct {
	StartAt time.Time `json:"startAt"`
	Price   float64   `json:"price"` // currency per kWh
}

// ScalePrice converts an ingress price to the stored fixed-point value.
func ScalePrice(p float64) int64 {
	if p < 0 {
		return int64(p*PriceScale - 0.5)
	}
	return int64(p*PriceScale + 0.5)
}
