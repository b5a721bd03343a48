package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

var migrations = []string{
	migrationVehicles,
	migrationLocations,
	migrationPriceList,
	migrationConnections,
	migrationCharges,
	migrationChargeCurrent,
	migrationChargeCurve,
	migrationTrips,
	migrationEventMap,
	migrationCurrentStats,
}

const migrationVehicles = `
CREATE TABLE IF NOT EXISTS vehicle (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    minimum_charge INT NOT NULL DEFAULT 20,
    maximum_charge INT NOT NULL DEFAULT 80,
    anxiety_level INT NOT NULL DEFAULT 0,
    trip_schedule JSONB,
    paused_until TIMESTAMP WITH TIME ZONE,
    location_id UUID,
    lat_micro BIGINT NOT NULL DEFAULT 0,
    lon_micro BIGINT NOT NULL DEFAULT 0,
    level INT NOT NULL DEFAULT 0,
    odometer BIGINT NOT NULL DEFAULT 0,
    outside_deci_temp INT NOT NULL DEFAULT 0,
    inside_deci_temp INT NOT NULL DEFAULT 0,
    climate_on BOOLEAN NOT NULL DEFAULT false,
    driving BOOLEAN NOT NULL DEFAULT false,
    connected BOOLEAN NOT NULL DEFAULT false,
    connected_id UUID,
    charge_id UUID,
    trip_id UUID,
    charge_plan JSONB,
    smart_status TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    provider_data JSONB,
    CONSTRAINT vehicle_charge_bounds CHECK (minimum_charge <= maximum_charge)
);
CREATE INDEX IF NOT EXISTS idx_vehicle_account ON vehicle(account_id);
CREATE INDEX IF NOT EXISTS idx_vehicle_location ON vehicle(location_id);
`

const migrationLocations = `
CREATE TABLE IF NOT EXISTS location (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL,
    name TEXT NOT NULL,
    lat_micro BIGINT NOT NULL,
    lon_micro BIGINT NOT NULL,
    geo_fence_radius INT NOT NULL DEFAULT 50,
    price_code TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_location_account ON location(account_id);
`

const migrationPriceList = `
CREATE TABLE IF NOT EXISTS price_list (
    price_code TEXT NOT NULL,
    ts TIMESTAMP WITH TIME ZONE NOT NULL,
    price BIGINT NOT NULL,
    PRIMARY KEY (price_code, ts)
);
`

const migrationConnections = `
CREATE TABLE IF NOT EXISTS connected (
    connected_id UUID PRIMARY KEY,
    vehicle_id UUID NOT NULL,
    location_id UUID NOT NULL,
    type TEXT NOT NULL,
    start_ts TIMESTAMP WITH TIME ZONE NOT NULL,
    end_ts TIMESTAMP WITH TIME ZONE NOT NULL,
    start_level INT NOT NULL,
    end_level INT NOT NULL,
    energy_used DOUBLE PRECISION NOT NULL DEFAULT 0,
    cost DOUBLE PRECISION NOT NULL DEFAULT 0,
    saved DOUBLE PRECISION NOT NULL DEFAULT 0,
    connected BOOLEAN NOT NULL DEFAULT true
);
CREATE INDEX IF NOT EXISTS idx_connected_vehicle_start ON connected(vehicle_id, start_ts);
`

const migrationCharges = `
CREATE TABLE IF NOT EXISTS charge (
    charge_id UUID PRIMARY KEY,
    connected_id UUID NOT NULL,
    vehicle_id UUID NOT NULL,
    location_id UUID NOT NULL,
    type TEXT NOT NULL,
    start_ts TIMESTAMP WITH TIME ZONE NOT NULL,
    end_ts TIMESTAMP WITH TIME ZONE NOT NULL,
    start_level INT NOT NULL,
    end_level INT NOT NULL,
    start_added DOUBLE PRECISION NOT NULL DEFAULT 0,
    end_added DOUBLE PRECISION NOT NULL DEFAULT 0,
    target_level INT NOT NULL DEFAULT 0,
    estimate INT NOT NULL DEFAULT 0,
    energy_used DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_charge_connected ON charge(connected_id, start_ts);
`

const migrationChargeCurrent = `
CREATE TABLE IF NOT EXISTS charge_current (
    charge_id UUID PRIMARY KEY,
    start_ts TIMESTAMP WITH TIME ZONE NOT NULL,
    start_level INT NOT NULL,
    start_added DOUBLE PRECISION NOT NULL DEFAULT 0,
    powers DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    outside_deci_temps INT[] NOT NULL DEFAULT '{}'
);
`

const migrationChargeCurve = `
CREATE TABLE IF NOT EXISTS charge_curve (
    vehicle_id UUID NOT NULL,
    location_id UUID NOT NULL,
    level INT NOT NULL CHECK (level BETWEEN 1 AND 100),
    duration INT NOT NULL,
    avg_deci_temp INT NOT NULL DEFAULT 0,
    energy_used DOUBLE PRECISION NOT NULL DEFAULT 0,
    energy_added DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (vehicle_id, location_id, level)
);
`

const migrationTrips = `
CREATE TABLE IF NOT EXISTS trip (
    trip_id UUID PRIMARY KEY,
    vehicle_id UUID NOT NULL,
    start_ts TIMESTAMP WITH TIME ZONE NOT NULL,
    end_ts TIMESTAMP WITH TIME ZONE NOT NULL,
    start_level INT NOT NULL,
    end_level INT NOT NULL,
    start_location_id UUID,
    end_location_id UUID,
    start_odometer BIGINT NOT NULL DEFAULT 0,
    start_outside_deci_temp INT NOT NULL DEFAULT 0,
    distance BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_trip_vehicle_start ON trip(vehicle_id, start_ts);
`

const migrationEventMap = `
CREATE TABLE IF NOT EXISTS event_map (
    vehicle_id UUID NOT NULL,
    hour TIMESTAMP WITH TIME ZONE NOT NULL,
    minimum_level INT NOT NULL,
    maximum_level INT NOT NULL,
    driven_seconds BIGINT NOT NULL DEFAULT 0,
    driven_meters BIGINT NOT NULL DEFAULT 0,
    charged_seconds BIGINT NOT NULL DEFAULT 0,
    charge_energy DOUBLE PRECISION NOT NULL DEFAULT 0,
    PRIMARY KEY (vehicle_id, hour)
);
`

const migrationCurrentStats = `
CREATE TABLE IF NOT EXISTS current_stats (
    stats_id UUID PRIMARY KEY,
    vehicle_id UUID NOT NULL,
    location_id UUID NOT NULL,
    price_list_ts TIMESTAMP WITH TIME ZONE,
    level_charge_time DOUBLE PRECISION,
    weekly_avg7_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    weekly_avg21_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    threshold INT NOT NULL DEFAULT 100,
    created TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_current_stats_pair ON current_stats(vehicle_id, location_id, created);
`
