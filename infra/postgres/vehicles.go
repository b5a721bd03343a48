package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

const vehicleColumns = `id, account_id, name, minimum_charge, maximum_charge, anxiety_level,
    trip_schedule, paused_until, location_id, lat_micro, lon_micro, level, odometer,
    outside_deci_temp, inside_deci_temp, climate_on, driving, connected,
    connected_id, charge_id, trip_id, charge_plan, smart_status, status, updated, provider_data`

func scanVehicle(row pgx.Row) (model.Vehicle, error) {
	var v model.Vehicle
	var trip, plan, provider []byte
	err := row.Scan(
		&v.ID, &v.AccountID, &v.Name, &v.MinimumCharge, &v.MaximumCharge, &v.AnxietyLevel,
		&trip, &v.PausedUntil, &v.LocationID, &v.LatMicroDeg, &v.LonMicroDeg, &v.Level, &v.Odometer,
		&v.OutsideDeciTemp, &v.InsideDeciTemp, &v.ClimateOn, &v.Driving, &v.Connected,
		&v.ConnectedID, &v.ChargeID, &v.TripID, &plan, &v.SmartStatus, &v.Status, &v.Updated, &provider,
	)
	if err != nil {
		return model.Vehicle{}, err
	}
	if len(trip) > 0 {
		var ts model.ScheduledTrip
		if err := json.Unmarshal(trip, &ts); err != nil {
			return model.Vehicle{}, fmt.Errorf("decode trip schedule: %w", err)
		}
		v.Trip = &ts
	}
	if len(plan) > 0 {
		if err := json.Unmarshal(plan, &v.ChargePlan); err != nil {
			return model.Vehicle{}, fmt.Errorf("decode charge plan: %w", err)
		}
	}
	if len(provider) > 0 {
		v.ProviderData = json.RawMessage(provider)
	}
	return v, nil
}

func vehicleArgs(v model.Vehicle) ([]any, error) {
	var trip, plan, provider any
	if v.Trip != nil {
		b, err := json.Marshal(v.Trip)
		if err != nil {
			return nil, fmt.Errorf("encode trip schedule: %w", err)
		}
		trip = b
	}
	if v.ChargePlan != nil {
		b, err := json.Marshal(v.ChargePlan)
		if err != nil {
			return nil, fmt.Errorf("encode charge plan: %w", err)
		}
		plan = b
	}
	if len(v.ProviderData) > 0 {
		provider = []byte(v.ProviderData)
	}
	return []any{
		v.ID, v.AccountID, v.Name, v.MinimumCharge, v.MaximumCharge, v.AnxietyLevel,
		trip, v.PausedUntil, v.LocationID, v.LatMicroDeg, v.LonMicroDeg, v.Level, v.Odometer,
		v.OutsideDeciTemp, v.InsideDeciTemp, v.ClimateOn, v.Driving, v.Connected,
		v.ConnectedID, v.ChargeID, v.TripID, plan, v.SmartStatus, v.Status, v.Updated, provider,
	}, nil
}

const upsertVehicleSQL = `INSERT INTO vehicle (` + vehicleColumns + `)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
    ON CONFLICT (id) DO UPDATE SET
        account_id = excluded.account_id,
        name = excluded.name,
        minimum_charge = excluded.minimum_charge,
        maximum_charge = excluded.maximum_charge,
        anxiety_level = excluded.anxiety_level,
        trip_schedule = excluded.trip_schedule,
        paused_until = excluded.paused_until,
        location_id = excluded.location_id,
        lat_micro = excluded.lat_micro,
        lon_micro = excluded.lon_micro,
        level = excluded.level,
        odometer = excluded.odometer,
        outside_deci_temp = excluded.outside_deci_temp,
        inside_deci_temp = excluded.inside_deci_temp,
        climate_on = excluded.climate_on,
        driving = excluded.driving,
        connected = excluded.connected,
        connected_id = excluded.connected_id,
        charge_id = excluded.charge_id,
        trip_id = excluded.trip_id,
        charge_plan = excluded.charge_plan,
        smart_status = excluded.smart_status,
        status = excluded.status,
        updated = excluded.updated,
        provider_data = excluded.provider_data`

func (s *Store) GetVehicle(ctx context.Context, id uuid.UUID) (model.Vehicle, error) {
	var v model.Vehicle
	err := s.withRetry(ctx, "get_vehicle", func(ctx context.Context) error {
		var err error
		v, err = scanVehicle(s.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicle WHERE id = $1`, id))
		return err
	})
	return v, wrap("get_vehicle", err)
}

func (s *Store) Accounts(ctx context.Context) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := s.withRetry(ctx, "accounts", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT DISTINCT account_id FROM vehicle ORDER BY account_id`)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
		}
		return rows.Err()
	})
	return out, wrap("accounts", err)
}

func (s *Store) AccountVehicles(ctx context.Context, accountID uuid.UUID) ([]model.Vehicle, error) {
	out, err := s.queryVehicles(ctx, `SELECT `+vehicleColumns+` FROM vehicle WHERE account_id = $1 ORDER BY id`, accountID)
	return out, wrap("account_vehicles", err)
}

func (s *Store) VehiclesByPriceCode(ctx context.Context, priceCode string) ([]model.Vehicle, error) {
	out, err := s.queryVehicles(ctx, `SELECT `+vehicleColumns+` FROM vehicle v
        WHERE v.location_id IN (SELECT id FROM location WHERE price_code = $1) ORDER BY v.id`, priceCode)
	return out, wrap("vehicles_by_price_code", err)
}

func (s *Store) queryVehicles(ctx context.Context, sql string, args ...any) ([]model.Vehicle, error) {
	var out []model.Vehicle
	err := s.withRetry(ctx, "query_vehicles", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			v, err := scanVehicle(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	return out, err
}

func (s *Store) PutVehicle(ctx context.Context, v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return store.NewError(store.KindInvalidInput, "put_vehicle", err)
	}
	args, err := vehicleArgs(v)
	if err != nil {
		return store.NewError(store.KindInvalidInput, "put_vehicle", err)
	}
	return wrap("put_vehicle", s.withRetry(ctx, "put_vehicle", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, upsertVehicleSQL, args...)
		return err
	}))
}

func (s *Store) SetChargePlan(ctx context.Context, vehicleID uuid.UUID, plan model.ChargePlan, smartStatus string) error {
	var encoded any
	if plan != nil {
		b, err := json.Marshal(plan)
		if err != nil {
			return store.NewError(store.KindInvalidInput, "set_charge_plan", err)
		}
		encoded = b
	}
	return wrap("set_charge_plan", s.withRetry(ctx, "set_charge_plan", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx,
			`UPDATE vehicle SET charge_plan = $2, smart_status = $3 WHERE id = $1`,
			vehicleID, encoded, smartStatus)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	}))
}

// CommitVehicleData applies one telemetry mutation set in a single
// transaction.
func (s *Store) CommitVehicleData(ctx context.Context, c store.VehicleDataCommit) error {
	args, err := vehicleArgs(c.Vehicle)
	if err != nil {
		return store.NewError(store.KindInvalidInput, "commit_vehicle_data", err)
	}
	return wrap("commit_vehicle_data", s.withRetry(ctx, "commit_vehicle_data", func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vehicle WHERE id = $1)`, c.Vehicle.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		if _, err := tx.Exec(ctx, upsertVehicleSQL, args...); err != nil {
			return err
		}
		if c.Connection != nil {
			if _, err := tx.Exec(ctx, upsertConnectionSQL, connectionArgs(*c.Connection)...); err != nil {
				return err
			}
		}
		if c.Charge != nil {
			if _, err := tx.Exec(ctx, upsertChargeSQL, chargeArgs(*c.Charge)...); err != nil {
				return err
			}
		}
		if c.ChargeCurrent != nil {
			if _, err := tx.Exec(ctx, upsertChargeCurrentSQL, chargeCurrentArgs(*c.ChargeCurrent)...); err != nil {
				return err
			}
		}
		if c.DeleteChargeCurrent != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM charge_current WHERE charge_id = $1`, *c.DeleteChargeCurrent); err != nil {
				return err
			}
		}
		if c.CurvePoint != nil {
			if _, err := tx.Exec(ctx, upsertCurveSQL, curveArgs(*c.CurvePoint)...); err != nil {
				return err
			}
		}
		if c.Trip != nil {
			if _, err := tx.Exec(ctx, upsertTripSQL, tripArgs(*c.Trip)...); err != nil {
				return err
			}
		}
		if c.DeleteTrip != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM trip WHERE trip_id = $1`, *c.DeleteTrip); err != nil {
				return err
			}
		}
		if c.EventMap != nil {
			if _, err := tx.Exec(ctx, upsertEventMapSQL, eventMapArgs(*c.EventMap)...); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	}))
}
