package vehiclestatus

import (
	"testing"

	"github.com/google/uuid"
)

func TestStoreSetGetList(t *testing.T) {
	s := NewMemoryStore()
	account := uuid.New()
	a := Status{VehicleID: uuid.New(), AccountID: account, SmartStatus: "Smart charging enabled"}
	b := Status{VehicleID: uuid.New(), AccountID: uuid.New()}
	s.Set(a)
	s.Set(b)

	got, ok := s.Get(a.VehicleID)
	if !ok || got.SmartStatus != a.SmartStatus {
		t.Fatalf("get returned %+v", got)
	}
	if _, ok := s.Get(uuid.New()); ok {
		t.Fatal("unknown vehicle must miss")
	}

	all := s.List(Filter{})
	if len(all) != 2 {
		t.Fatalf("expected 2 got %d", len(all))
	}
	scoped := s.List(Filter{AccountID: account})
	if len(scoped) != 1 || scoped[0].VehicleID != a.VehicleID {
		t.Fatalf("account filter broken: %+v", scoped)
	}
}
