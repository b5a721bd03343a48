package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/voltplan/voltplan/core/model"
)

const connectionColumns = `connected_id, vehicle_id, location_id, type, start_ts, end_ts,
    start_level, end_level, energy_used, cost, saved, connected`

const upsertConnectionSQL = `INSERT INTO connected (` + connectionColumns + `)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    ON CONFLICT (connected_id) DO UPDATE SET
        end_ts = excluded.end_ts,
        end_level = excluded.end_level,
        energy_used = excluded.energy_used,
        cost = excluded.cost,
        saved = excluded.saved,
        connected = excluded.connected`

func connectionArgs(c model.Connection) []any {
	return []any{c.ID, c.VehicleID, c.LocationID, string(c.Type), c.StartTs, c.EndTs,
		c.StartLevel, c.EndLevel, c.EnergyUsed, c.Cost, c.Saved, c.Connected}
}

func scanConnection(row pgx.Row) (model.Connection, error) {
	var c model.Connection
	var typ string
	err := row.Scan(&c.ID, &c.VehicleID, &c.LocationID, &typ, &c.StartTs, &c.EndTs,
		&c.StartLevel, &c.EndLevel, &c.EnergyUsed, &c.Cost, &c.Saved, &c.Connected)
	c.Type = model.ChargerType(typ)
	return c, err
}

func (s *Store) GetConnection(ctx context.Context, id uuid.UUID) (model.Connection, error) {
	var c model.Connection
	err := s.withRetry(ctx, "get_connection", func(ctx context.Context) error {
		var err error
		c, err = scanConnection(s.pool.QueryRow(ctx, `SELECT `+connectionColumns+` FROM connected WHERE connected_id = $1`, id))
		return err
	})
	return c, wrap("get_connection", err)
}

func (s *Store) PutConnection(ctx context.Context, c model.Connection) error {
	return wrap("put_connection", s.withRetry(ctx, "put_connection", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, upsertConnectionSQL, connectionArgs(c)...)
		return err
	}))
}

func (s *Store) ClosedConnections(ctx context.Context, vehicleID uuid.UUID, since time.Time) ([]model.Connection, error) {
	var out []model.Connection
	err := s.withRetry(ctx, "closed_connections", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT `+connectionColumns+` FROM connected
            WHERE vehicle_id = $1 AND connected = false AND start_ts >= $2 ORDER BY start_ts`, vehicleID, since)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			c, err := scanConnection(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, wrap("closed_connections", err)
}

const chargeColumns = `charge_id, connected_id, vehicle_id, location_id, type, start_ts, end_ts,
    start_level, end_level, start_added, end_added, target_level, estimate, energy_used`

const upsertChargeSQL = `INSERT INTO charge (` + chargeColumns + `)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    ON CONFLICT (charge_id) DO UPDATE SET
        end_ts = excluded.end_ts,
        end_level = excluded.end_level,
        end_added = excluded.end_added,
        target_level = excluded.target_level,
        estimate = excluded.estimate,
        energy_used = excluded.energy_used`

func chargeArgs(c model.Charge) []any {
	return []any{c.ID, c.ConnectedID, c.VehicleID, c.LocationID, string(c.Type), c.StartTs, c.EndTs,
		c.StartLevel, c.EndLevel, c.StartAdded, c.EndAdded, c.TargetLevel, c.Estimate, c.EnergyUsed}
}

func scanCharge(row pgx.Row) (model.Charge, error) {
	var c model.Charge
	var typ string
	err := row.Scan(&c.ID, &c.ConnectedID, &c.VehicleID, &c.LocationID, &typ, &c.StartTs, &c.EndTs,
		&c.StartLevel, &c.EndLevel, &c.StartAdded, &c.EndAdded, &c.TargetLevel, &c.Estimate, &c.EnergyUsed)
	c.Type = model.ChargerType(typ)
	return c, err
}

func (s *Store) GetCharge(ctx context.Context, id uuid.UUID) (model.Charge, error) {
	var c model.Charge
	err := s.withRetry(ctx, "get_charge", func(ctx context.Context) error {
		var err error
		c, err = scanCharge(s.pool.QueryRow(ctx, `SELECT `+chargeColumns+` FROM charge WHERE charge_id = $1`, id))
		return err
	})
	return c, wrap("get_charge", err)
}

func (s *Store) PutCharge(ctx context.Context, c model.Charge) error {
	return wrap("put_charge", s.withRetry(ctx, "put_charge", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, upsertChargeSQL, chargeArgs(c)...)
		return err
	}))
}

func (s *Store) ConnectionCharges(ctx context.Context, connectedID uuid.UUID) ([]model.Charge, error) {
	var out []model.Charge
	err := s.withRetry(ctx, "connection_charges", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT `+chargeColumns+` FROM charge WHERE connected_id = $1 ORDER BY start_ts`, connectedID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			c, err := scanCharge(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, wrap("connection_charges", err)
}

const upsertChargeCurrentSQL = `INSERT INTO charge_current
    (charge_id, start_ts, start_level, start_added, powers, outside_deci_temps)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (charge_id) DO UPDATE SET
        start_ts = excluded.start_ts,
        start_level = excluded.start_level,
        start_added = excluded.start_added,
        powers = excluded.powers,
        outside_deci_temps = excluded.outside_deci_temps`

func chargeCurrentArgs(c model.ChargeCurrent) []any {
	powers := c.Powers
	if powers == nil {
		powers = []float64{}
	}
	temps := c.OutsideDeciTemps
	if temps == nil {
		temps = []int{}
	}
	return []any{c.ChargeID, c.StartTs, c.StartLevel, c.StartAdded, powers, temps}
}

func (s *Store) GetChargeCurrent(ctx context.Context, chargeID uuid.UUID) (model.ChargeCurrent, error) {
	var c model.ChargeCurrent
	err := s.withRetry(ctx, "get_charge_current", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `SELECT charge_id, start_ts, start_level, start_added, powers, outside_deci_temps
            FROM charge_current WHERE charge_id = $1`, chargeID).
			Scan(&c.ChargeID, &c.StartTs, &c.StartLevel, &c.StartAdded, &c.Powers, &c.OutsideDeciTemps)
	})
	return c, wrap("get_charge_current", err)
}

func (s *Store) PutChargeCurrent(ctx context.Context, c model.ChargeCurrent) error {
	return wrap("put_charge_current", s.withRetry(ctx, "put_charge_current", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, upsertChargeCurrentSQL, chargeCurrentArgs(c)...)
		return err
	}))
}

func (s *Store) DeleteChargeCurrent(ctx context.Context, chargeID uuid.UUID) error {
	return wrap("delete_charge_current", s.withRetry(ctx, "delete_charge_current", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `DELETE FROM charge_current WHERE charge_id = $1`, chargeID)
		return err
	}))
}
