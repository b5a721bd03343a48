// Package metrics defines the observability sinks the control plane records
// into. Implementations live in infra/metrics.
package metrics

import (
	"time"

	"github.com/google/uuid"
)

// IngestEvent is one processed telemetry sample.
type IngestEvent struct {
	VehicleID uuid.UUID
	Driving   bool
	Charging  bool
	Connected bool
	Level     int
	PowerW    float64
	Dropped   bool
	Time      time.Time
}

// ReplanEvent is one finished replan attempt.
type ReplanEvent struct {
	VehicleID uuid.UUID
	Trigger   string
	Segments  int
	Duration  time.Duration
	Err       error
	Time      time.Time
}

// PriceFeedEvent is one price list refresh.
type PriceFeedEvent struct {
	PriceCode string
	Points    int
	Time      time.Time
}

// MetricsSink records control plane events for observability purposes.
type MetricsSink interface {
	RecordIngest(ev IngestEvent) error
	RecordReplan(ev ReplanEvent) error
	RecordPriceFeed(ev PriceFeedEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordIngest(IngestEvent) error       { return nil }
func (NopSink) RecordReplan(ReplanEvent) error       { return nil }
func (NopSink) RecordPriceFeed(PriceFeedEvent) error { return nil }
