// Package store defines the persistence gateway the planning engine runs
// against. The relational database is the source of truth; no vehicle state
// cached in memory survives beyond a request.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

// VehicleDataCommit is the mutation set one telemetry sample produces. The
// gateway applies the whole set in a single transaction so a failing sample
// never leaves a partial commit behind.
type VehicleDataCommit struct {
	Vehicle             model.Vehicle
	Connection          *model.Connection
	Charge              *model.Charge
	ChargeCurrent       *model.ChargeCurrent
	DeleteChargeCurrent *uuid.UUID
	CurvePoint          *model.ChargeCurvePoint
	Trip                *model.Trip
	DeleteTrip          *uuid.UUID
	EventMap            *model.EventMapRow
}

// Store is the persistence gateway. Every operation surfaces failures as a
// typed *Error; transient failures are retried inside the implementation.
type Store interface {
	// Vehicles.
	GetVehicle(ctx context.Context, id uuid.UUID) (model.Vehicle, error)
	Accounts(ctx context.Context) ([]uuid.UUID, error)
	AccountVehicles(ctx context.Context, accountID uuid.UUID) ([]model.Vehicle, error)
	VehiclesByPriceCode(ctx context.Context, priceCode string) ([]model.Vehicle, error)
	PutVehicle(ctx context.Context, v model.Vehicle) error
	SetChargePlan(ctx context.Context, vehicleID uuid.UUID, plan model.ChargePlan, smartStatus string) error
	CommitVehicleData(ctx context.Context, c VehicleDataCommit) error

	// Locations.
	GetLocation(ctx context.Context, id uuid.UUID) (model.Location, error)
	GetLocations(ctx context.Context, accountID uuid.UUID) ([]model.Location, error)
	// LookupKnownLocation returns the smallest-radius location of the
	// account whose geo-fence contains the point, or nil.
	LookupKnownLocation(ctx context.Context, accountID uuid.UUID, latMicro, lonMicro int64) (*model.Location, error)

	// Prices.
	UpdatePriceList(ctx context.Context, priceCode string, points []model.PricePoint) error
	LatestPriceTs(ctx context.Context, priceCode string) (time.Time, error)
	// PriceAt returns the latest price point with Ts <= ts.
	PriceAt(ctx context.Context, priceCode string, ts time.Time) (model.PricePoint, error)
	PricesInRange(ctx context.Context, priceCode string, from, to time.Time) ([]model.PricePoint, error)

	// Charge curve.
	SetChargeCurve(ctx context.Context, p model.ChargeCurvePoint) error
	GetChargeCurve(ctx context.Context, vehicleID, locationID uuid.UUID) ([]model.ChargeCurvePoint, error)

	// Connections, charges and the learner scratch row.
	GetConnection(ctx context.Context, id uuid.UUID) (model.Connection, error)
	PutConnection(ctx context.Context, c model.Connection) error
	// ClosedConnections returns finished connections of the vehicle with
	// StartTs >= since, ordered by StartTs ascending.
	ClosedConnections(ctx context.Context, vehicleID uuid.UUID, since time.Time) ([]model.Connection, error)
	GetCharge(ctx context.Context, id uuid.UUID) (model.Charge, error)
	PutCharge(ctx context.Context, c model.Charge) error
	// ConnectionCharges returns the charges of one connection ordered by
	// StartTs ascending.
	ConnectionCharges(ctx context.Context, connectedID uuid.UUID) ([]model.Charge, error)
	GetChargeCurrent(ctx context.Context, chargeID uuid.UUID) (model.ChargeCurrent, error)
	PutChargeCurrent(ctx context.Context, c model.ChargeCurrent) error
	DeleteChargeCurrent(ctx context.Context, chargeID uuid.UUID) error

	// Trips.
	GetTrip(ctx context.Context, id uuid.UUID) (model.Trip, error)
	PutTrip(ctx context.Context, t model.Trip) error
	DeleteTrip(ctx context.Context, id uuid.UUID) error

	// Hourly event map; the upsert is atomic so concurrent samples for the
	// same hour combine instead of clobbering.
	UpsertEventMap(ctx context.Context, row model.EventMapRow) error

	// Simulation results.
	LatestStats(ctx context.Context, vehicleID, locationID uuid.UUID) (*model.CurrentStats, error)
	PutStats(ctx context.Context, s model.CurrentStats) error
}
