package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

// MockEngine returns canned routine predictions keyed by vehicle.
type MockEngine struct {
	Routines map[uuid.UUID]Routine
	Err      error
}

// PredictDisconnect returns the configured routine or nil.
func (m MockEngine) PredictDisconnect(_ context.Context, vehicle model.Vehicle, _ model.Location, _ time.Time) (*Routine, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.Routines[vehicle.ID]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}
