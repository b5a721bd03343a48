package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
)

const tripColumns = `trip_id, vehicle_id, start_ts, end_ts, start_level, end_level,
    start_location_id, end_location_id, start_odometer, start_outside_deci_temp, distance`

const upsertTripSQL = `INSERT INTO trip (` + tripColumns + `)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    ON CONFLICT (trip_id) DO UPDATE SET
        end_ts = excluded.end_ts,
        end_level = excluded.end_level,
        end_location_id = excluded.end_location_id,
        distance = excluded.distance`

func tripArgs(t model.Trip) []any {
	return []any{t.ID, t.VehicleID, t.StartTs, t.EndTs, t.StartLevel, t.EndLevel,
		t.StartLocationID, t.EndLocationID, t.StartOdometer, t.StartOutsideDeciTemp, t.Distance}
}

func (s *Store) GetTrip(ctx context.Context, id uuid.UUID) (model.Trip, error) {
	var t model.Trip
	err := s.withRetry(ctx, "get_trip", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trip WHERE trip_id = $1`, id).
			Scan(&t.ID, &t.VehicleID, &t.StartTs, &t.EndTs, &t.StartLevel, &t.EndLevel,
				&t.StartLocationID, &t.EndLocationID, &t.StartOdometer, &t.StartOutsideDeciTemp, &t.Distance)
	})
	return t, wrap("get_trip", err)
}

func (s *Store) PutTrip(ctx context.Context, t model.Trip) error {
	return wrap("put_trip", s.withRetry(ctx, "put_trip", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, upsertTripSQL, tripArgs(t)...)
		return err
	}))
}

func (s *Store) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	return wrap("delete_trip", s.withRetry(ctx, "delete_trip", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `DELETE FROM trip WHERE trip_id = $1`, id)
		return err
	}))
}
