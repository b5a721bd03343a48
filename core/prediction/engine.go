package prediction

import (
	"context"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// Routine is a predicted next charging cycle: how many percent it will
// spend and by when the charge should be complete.
type Routine struct {
	Charge float64   // percent the next cycle is expected to use
	Before time.Time // predicted disconnect time
}

// Engine forecasts the next disconnect for a vehicle at a location.
type Engine interface {
	// PredictDisconnect returns the routine prediction, or nil when the
	// history is too thin to predict from.
	PredictDisconnect(ctx context.Context, vehicle model.Vehicle, location model.Location, now time.Time) (*Routine, error)
}
