package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	coremetrics "github.com/voltplan/voltplan/core/metrics"
)

type recordingSink struct {
	ingests int
	replans int
	feeds   int
	err     error
}

func (r *recordingSink) RecordIngest(coremetrics.IngestEvent) error {
	r.ingests++
	return r.err
}

func (r *recordingSink) RecordReplan(coremetrics.ReplanEvent) error {
	r.replans++
	return r.err
}

func (r *recordingSink) RecordPriceFeed(coremetrics.PriceFeedEvent) error {
	r.feeds++
	return r.err
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordIngest(coremetrics.IngestEvent{VehicleID: uuid.New(), Time: time.Now()}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := m.RecordReplan(coremetrics.ReplanEvent{VehicleID: uuid.New()}); err != nil {
		t.Fatalf("replan: %v", err)
	}
	if err := m.RecordPriceFeed(coremetrics.PriceFeedEvent{PriceCode: "SE3"}); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if a.ingests != 1 || b.ingests != 1 || a.replans != 1 || b.replans != 1 || a.feeds != 1 || b.feeds != 1 {
		t.Fatalf("fan-out incomplete: %+v %+v", a, b)
	}
}

func TestMultiSinkFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingSink{err: boom}
	b := &recordingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordIngest(coremetrics.IngestEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if b.ingests != 0 {
		t.Fatal("later sinks must not run after a failure")
	}
}
