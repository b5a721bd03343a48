package postgres

import (
	"context"

	"github.com/voltplan/voltplan/core/model"
)

// The upsert combines concurrent rows for the same hour with min/max/sum so
// parallel samples never clobber each other.
const upsertEventMapSQL = `INSERT INTO event_map
    (vehicle_id, hour, minimum_level, maximum_level, driven_seconds, driven_meters, charged_seconds, charge_energy)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (vehicle_id, hour) DO UPDATE SET
        minimum_level = LEAST(event_map.minimum_level, excluded.minimum_level),
        maximum_level = GREATEST(event_map.maximum_level, excluded.maximum_level),
        driven_seconds = event_map.driven_seconds + excluded.driven_seconds,
        driven_meters = event_map.driven_meters + excluded.driven_meters,
        charged_seconds = event_map.charged_seconds + excluded.charged_seconds,
        charge_energy = event_map.charge_energy + excluded.charge_energy`

func eventMapArgs(r model.EventMapRow) []any {
	return []any{r.VehicleID, r.Hour, r.MinimumLevel, r.MaximumLevel,
		r.DrivenSeconds, r.DrivenMeters, r.ChargedSeconds, r.ChargeEnergy}
}

func (s *Store) UpsertEventMap(ctx context.Context, row model.EventMapRow) error {
	return wrap("upsert_event_map", s.withRetry(ctx, "upsert_event_map", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, upsertEventMapSQL, eventMapArgs(row)...)
		return err
	}))
}
