package kpi

import (
	"testing"
	"time"
)

func TestMemoryStoreAggregatesByDay(t *testing.T) {
	s := NewMemoryStore()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Add(Record{VehicleID: "v1", Date: day.Add(2 * time.Hour), Cost: 1, Saved: 0.5, EnergyKWh: 4}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(Record{VehicleID: "v1", Date: day.Add(20 * time.Hour), Cost: 2, Saved: 0.5, EnergyKWh: 6}); err != nil {
		t.Fatalf("add: %v", err)
	}
	recs, err := s.Query("v1", day, day)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record got %d", len(recs))
	}
	r := recs[0]
	if r.Cost != 3 || r.Saved != 1 || r.EnergyKWh != 10 {
		t.Fatalf("bad aggregate %+v", r)
	}
}

func TestSavingsRatio(t *testing.T) {
	r := Record{Cost: 3, Saved: 1}
	if got := r.SavingsRatio(); got != 0.25 {
		t.Fatalf("expected 0.25 got %v", got)
	}
	if (Record{}).SavingsRatio() != 0 {
		t.Fatal("zero record should yield 0")
	}
}
