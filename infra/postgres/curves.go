package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

const upsertCurveSQL = `INSERT INTO charge_curve
    (vehicle_id, location_id, level, duration, avg_deci_temp, energy_used, energy_added)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (vehicle_id, location_id, level) DO UPDATE SET
        duration = excluded.duration,
        avg_deci_temp = excluded.avg_deci_temp,
        energy_used = excluded.energy_used,
        energy_added = excluded.energy_added`

func curveArgs(p model.ChargeCurvePoint) []any {
	return []any{p.VehicleID, p.LocationID, p.Level, p.Duration, p.AvgDeciTemp, p.EnergyUsed, p.EnergyAdded}
}

func (s *Store) SetChargeCurve(ctx context.Context, p model.ChargeCurvePoint) error {
	if p.Level < 1 || p.Level > 100 {
		return store.NewError(store.KindInvalidInput, "set_charge_curve", nil)
	}
	return wrap("set_charge_curve", s.withRetry(ctx, "set_charge_curve", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, upsertCurveSQL, curveArgs(p)...)
		return err
	}))
}

func (s *Store) GetChargeCurve(ctx context.Context, vehicleID, locationID uuid.UUID) ([]model.ChargeCurvePoint, error) {
	var out []model.ChargeCurvePoint
	err := s.withRetry(ctx, "get_charge_curve", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx,
			`SELECT vehicle_id, location_id, level, duration, avg_deci_temp, energy_used, energy_added
             FROM charge_curve WHERE vehicle_id = $1 AND location_id = $2 ORDER BY level`,
			vehicleID, locationID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var p model.ChargeCurvePoint
			if err := rows.Scan(&p.VehicleID, &p.LocationID, &p.Level, &p.Duration, &p.AvgDeciTemp, &p.EnergyUsed, &p.EnergyAdded); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, wrap("get_charge_curve", err)
}
