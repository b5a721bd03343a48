// Package vehiclestatus keeps an in-memory snapshot of each vehicle's
// published plan and smart status for the read API. The database stays the
// source of truth; this store is a cache fed from the event bus.
package vehiclestatus

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

// Status captures the latest published planning state of a vehicle.
type Status struct {
	VehicleID   uuid.UUID        `json:"vehicle_id"`
	AccountID   uuid.UUID        `json:"account_id,omitempty"`
	Name        string           `json:"name,omitempty"`
	SmartStatus string           `json:"smart_status"`
	Plan        model.ChargePlan `json:"charge_plan,omitempty"`
	Level       int              `json:"level"`
	Connected   bool             `json:"connected"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Filter restricts a listing.
type Filter struct {
	AccountID uuid.UUID
}

// Store holds vehicle status snapshots.
type Store interface {
	Set(Status)
	Get(vehicleID uuid.UUID) (Status, bool)
	List(Filter) []Status
}

// MemoryStore is the default Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]Status
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[uuid.UUID]Status{}}
}

func (s *MemoryStore) Set(st Status) {
	s.mu.Lock()
	s.data[st.VehicleID] = st
	s.mu.Unlock()
}

func (s *MemoryStore) Get(vehicleID uuid.UUID) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[vehicleID]
	return st, ok
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.AccountID != uuid.Nil && st.AccountID != f.AccountID {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].VehicleID.String() < res[j].VehicleID.String() })
	return res
}
