package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

// MemoryStore is an in-memory Store mirroring the Postgres gateway semantics.
// It backs unit tests and small single-process deployments.
type MemoryStore struct {
	mu            sync.RWMutex
	vehicles      map[uuid.UUID]model.Vehicle
	locations     map[uuid.UUID]model.Location
	prices        map[string][]model.PricePoint // sorted by Ts
	curves        map[curveKey]model.ChargeCurvePoint
	connections   map[uuid.UUID]model.Connection
	charges       map[uuid.UUID]model.Charge
	chargeCurrent map[uuid.UUID]model.ChargeCurrent
	trips         map[uuid.UUID]model.Trip
	events        map[eventKey]model.EventMapRow
	stats         []model.CurrentStats
}

type curveKey struct {
	vehicle  uuid.UUID
	location uuid.UUID
	level    int
}

type eventKey struct {
	vehicle uuid.UUID
	hour    time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles:      map[uuid.UUID]model.Vehicle{},
		locations:     map[uuid.UUID]model.Location{},
		prices:        map[string][]model.PricePoint{},
		curves:        map[curveKey]model.ChargeCurvePoint{},
		connections:   map[uuid.UUID]model.Connection{},
		charges:       map[uuid.UUID]model.Charge{},
		chargeCurrent: map[uuid.UUID]model.ChargeCurrent{},
		trips:         map[uuid.UUID]model.Trip{},
		events:        map[eventKey]model.EventMapRow{},
	}
}

func (s *MemoryStore) GetVehicle(_ context.Context, id uuid.UUID) (model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return model.Vehicle{}, NotFoundf("get_vehicle", "vehicle %s", id)
	}
	return v, nil
}

func (s *MemoryStore) Accounts(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[uuid.UUID]struct{}{}
	var out []uuid.UUID
	for _, v := range s.vehicles {
		if _, ok := seen[v.AccountID]; !ok {
			seen[v.AccountID] = struct{}{}
			out = append(out, v.AccountID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *MemoryStore) AccountVehicles(_ context.Context, accountID uuid.UUID) ([]model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Vehicle
	for _, v := range s.vehicles {
		if v.AccountID == accountID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryStore) VehiclesByPriceCode(_ context.Context, priceCode string) ([]model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Vehicle
	for _, v := range s.vehicles {
		if v.LocationID == nil {
			continue
		}
		loc, ok := s.locations[*v.LocationID]
		if ok && loc.PriceCode == priceCode {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryStore) PutVehicle(_ context.Context, v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return NewError(KindInvalidInput, "put_vehicle", err)
	}
	s.mu.Lock()
	s.vehicles[v.ID] = v
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SetChargePlan(_ context.Context, vehicleID uuid.UUID, plan model.ChargePlan, smartStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return NotFoundf("set_charge_plan", "vehicle %s", vehicleID)
	}
	v.ChargePlan = plan.Clone()
	v.SmartStatus = smartStatus
	s.vehicles[vehicleID] = v
	return nil
}

func (s *MemoryStore) CommitVehicleData(_ context.Context, c VehicleDataCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[c.Vehicle.ID]; !ok {
		return NotFoundf("commit_vehicle_data", "vehicle %s", c.Vehicle.ID)
	}
	s.vehicles[c.Vehicle.ID] = c.Vehicle
	if c.Connection != nil {
		s.connections[c.Connection.ID] = *c.Connection
	}
	if c.Charge != nil {
		s.charges[c.Charge.ID] = *c.Charge
	}
	if c.ChargeCurrent != nil {
		s.chargeCurrent[c.ChargeCurrent.ChargeID] = *c.ChargeCurrent
	}
	if c.DeleteChargeCurrent != nil {
		delete(s.chargeCurrent, *c.DeleteChargeCurrent)
	}
	if c.CurvePoint != nil {
		p := *c.CurvePoint
		s.curves[curveKey{p.VehicleID, p.LocationID, p.Level}] = p
	}
	if c.Trip != nil {
		s.trips[c.Trip.ID] = *c.Trip
	}
	if c.DeleteTrip != nil {
		delete(s.trips, *c.DeleteTrip)
	}
	if c.EventMap != nil {
		s.upsertEventLocked(*c.EventMap)
	}
	return nil
}

func (s *MemoryStore) GetLocation(_ context.Context, id uuid.UUID) (model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return model.Location{}, NotFoundf("get_location", "location %s", id)
	}
	return l, nil
}

func (s *MemoryStore) GetLocations(_ context.Context, accountID uuid.UUID) ([]model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Location
	for _, l := range s.locations {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) PutLocation(_ context.Context, l model.Location) error {
	s.mu.Lock()
	s.locations[l.ID] = l
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LookupKnownLocation(_ context.Context, accountID uuid.UUID, latMicro, lonMicro int64) (*model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *model.Location
	for _, l := range s.locations {
		if l.AccountID != accountID || !l.Contains(latMicro, lonMicro) {
			continue
		}
		if best == nil || l.GeoFenceRadius < best.GeoFenceRadius {
			cp := l
			best = &cp
		}
	}
	return best, nil
}

func (s *MemoryStore) UpdatePriceList(_ context.Context, priceCode string, points []model.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.prices[priceCode]
	byTs := make(map[time.Time]model.PricePoint, len(existing)+len(points))
	for _, p := range existing {
		byTs[p.Ts] = p
	}
	for _, p := range points {
		p.PriceCode = priceCode
		byTs[p.Ts] = p
	}
	merged := make([]model.PricePoint, 0, len(byTs))
	for _, p := range byTs {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Ts.Before(merged[j].Ts) })
	s.prices[priceCode] = merged
	return nil
}

func (s *MemoryStore) LatestPriceTs(_ context.Context, priceCode string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pts := s.prices[priceCode]
	if len(pts) == 0 {
		return time.Time{}, NotFoundf("latest_price_ts", "price code %s", priceCode)
	}
	return pts[len(pts)-1].Ts, nil
}

func (s *MemoryStore) PriceAt(_ context.Context, priceCode string, ts time.Time) (model.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pts := s.prices[priceCode]
	for i := len(pts) - 1; i >= 0; i-- {
		if !pts[i].Ts.After(ts) {
			return pts[i], nil
		}
	}
	return model.PricePoint{}, NotFoundf("price_at", "no price <= %s for %s", ts, priceCode)
}

func (s *MemoryStore) PricesInRange(_ context.Context, priceCode string, from, to time.Time) ([]model.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.PricePoint
	for _, p := range s.prices[priceCode] {
		if !p.Ts.Before(from) && p.Ts.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetChargeCurve(_ context.Context, p model.ChargeCurvePoint) error {
	if p.Level < 1 || p.Level > 100 {
		return NewError(KindInvalidInput, "set_charge_curve", nil)
	}
	s.mu.Lock()
	s.curves[curveKey{p.VehicleID, p.LocationID, p.Level}] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetChargeCurve(_ context.Context, vehicleID, locationID uuid.UUID) ([]model.ChargeCurvePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ChargeCurvePoint
	for k, p := range s.curves {
		if k.vehicle == vehicleID && k.location == locationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (s *MemoryStore) GetConnection(_ context.Context, id uuid.UUID) (model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[id]
	if !ok {
		return model.Connection{}, NotFoundf("get_connection", "connection %s", id)
	}
	return c, nil
}

func (s *MemoryStore) PutConnection(_ context.Context, c model.Connection) error {
	s.mu.Lock()
	s.connections[c.ID] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClosedConnections(_ context.Context, vehicleID uuid.UUID, since time.Time) ([]model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Connection
	for _, c := range s.connections {
		if c.VehicleID == vehicleID && !c.Connected && !c.StartTs.Before(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTs.Before(out[j].StartTs) })
	return out, nil
}

func (s *MemoryStore) GetCharge(_ context.Context, id uuid.UUID) (model.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.charges[id]
	if !ok {
		return model.Charge{}, NotFoundf("get_charge", "charge %s", id)
	}
	return c, nil
}

func (s *MemoryStore) PutCharge(_ context.Context, c model.Charge) error {
	s.mu.Lock()
	s.charges[c.ID] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ConnectionCharges(_ context.Context, connectedID uuid.UUID) ([]model.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Charge
	for _, c := range s.charges {
		if c.ConnectedID == connectedID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTs.Before(out[j].StartTs) })
	return out, nil
}

func (s *MemoryStore) GetChargeCurrent(_ context.Context, chargeID uuid.UUID) (model.ChargeCurrent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chargeCurrent[chargeID]
	if !ok {
		return model.ChargeCurrent{}, NotFoundf("get_charge_current", "charge %s", chargeID)
	}
	return c, nil
}

func (s *MemoryStore) PutChargeCurrent(_ context.Context, c model.ChargeCurrent) error {
	s.mu.Lock()
	s.chargeCurrent[c.ChargeID] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteChargeCurrent(_ context.Context, chargeID uuid.UUID) error {
	s.mu.Lock()
	delete(s.chargeCurrent, chargeID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetTrip(_ context.Context, id uuid.UUID) (model.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[id]
	if !ok {
		return model.Trip{}, NotFoundf("get_trip", "trip %s", id)
	}
	return t, nil
}

func (s *MemoryStore) PutTrip(_ context.Context, t model.Trip) error {
	s.mu.Lock()
	s.trips[t.ID] = t
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteTrip(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.trips, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpsertEventMap(_ context.Context, row model.EventMapRow) error {
	s.mu.Lock()
	s.upsertEventLocked(row)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) upsertEventLocked(row model.EventMapRow) {
	k := eventKey{row.VehicleID, row.Hour}
	if cur, ok := s.events[k]; ok {
		cur.Combine(row)
		s.events[k] = cur
		return
	}
	s.events[k] = row
}

// EventMapRow returns the aggregate for one hour, for tests and the API.
func (s *MemoryStore) EventMapRow(vehicleID uuid.UUID, hour time.Time) (model.EventMapRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.events[eventKey{vehicleID, hour}]
	return r, ok
}

func (s *MemoryStore) LatestStats(_ context.Context, vehicleID, locationID uuid.UUID) (*model.CurrentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.stats) - 1; i >= 0; i-- {
		st := s.stats[i]
		if st.VehicleID == vehicleID && st.LocationID == locationID {
			cp := st
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) PutStats(_ context.Context, st model.CurrentStats) error {
	s.mu.Lock()
	s.stats = append(s.stats, st)
	s.mu.Unlock()
	return nil
}
