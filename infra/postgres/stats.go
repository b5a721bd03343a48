package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/voltplan/voltplan/core/model"
)

func (s *Store) LatestStats(ctx context.Context, vehicleID, locationID uuid.UUID) (*model.CurrentStats, error) {
	var st model.CurrentStats
	err := s.withRetry(ctx, "latest_stats", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`SELECT stats_id, vehicle_id, location_id, price_list_ts, level_charge_time,
                    weekly_avg7_price, weekly_avg21_price, threshold
             FROM current_stats WHERE vehicle_id = $1 AND location_id = $2
             ORDER BY created DESC LIMIT 1`, vehicleID, locationID).
			Scan(&st.ID, &st.VehicleID, &st.LocationID, &st.PriceListTs, &st.LevelChargeTime,
				&st.WeeklyAvg7Price, &st.WeeklyAvg21Price, &st.Threshold)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("latest_stats", err)
	}
	return &st, nil
}

func (s *Store) PutStats(ctx context.Context, st model.CurrentStats) error {
	return wrap("put_stats", s.withRetry(ctx, "put_stats", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO current_stats
                (stats_id, vehicle_id, location_id, price_list_ts, level_charge_time,
                 weekly_avg7_price, weekly_avg21_price, threshold)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			st.ID, st.VehicleID, st.LocationID, st.PriceListTs, st.LevelChargeTime,
			st.WeeklyAvg7Price, st.WeeklyAvg21Price, st.Threshold)
		return err
	}))
}
