// Package planlog keeps an audit trail of every published charge plan so
// operators can answer "why did the car charge then". Stores are appendable
// and queryable; JSONL and SQLite backends live alongside.
package planlog

import (
	"context"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

// Record captures one replan outcome.
type Record struct {
	Timestamp   time.Time        `json:"timestamp"`
	VehicleID   string           `json:"vehicle_id"`
	Trigger     string           `json:"trigger"`
	SmartStatus string           `json:"smart_status"`
	Plan        model.ChargePlan `json:"plan"`
	DurationMs  int64            `json:"duration_ms"`
	Error       string           `json:"error,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	VehicleID string
	Trigger   string
}

func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.VehicleID != "" && r.VehicleID != q.VehicleID {
		return false
	}
	if q.Trigger != "" && r.Trigger != q.Trigger {
		return false
	}
	return true
}

// Store persists plan records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
