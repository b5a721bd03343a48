package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/voltplan/voltplan/core/model"
)

const locationColumns = `id, account_id, name, lat_micro, lon_micro, geo_fence_radius, price_code`

func scanLocation(row pgx.Row) (model.Location, error) {
	var l model.Location
	err := row.Scan(&l.ID, &l.AccountID, &l.Name, &l.LatMicroDeg, &l.LonMicroDeg, &l.GeoFenceRadius, &l.PriceCode)
	return l, err
}

func (s *Store) GetLocation(ctx context.Context, id uuid.UUID) (model.Location, error) {
	var l model.Location
	err := s.withRetry(ctx, "get_location", func(ctx context.Context) error {
		var err error
		l, err = scanLocation(s.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM location WHERE id = $1`, id))
		return err
	})
	return l, wrap("get_location", err)
}

func (s *Store) GetLocations(ctx context.Context, accountID uuid.UUID) ([]model.Location, error) {
	var out []model.Location
	err := s.withRetry(ctx, "get_locations", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT `+locationColumns+` FROM location WHERE account_id = $1 ORDER BY name`, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			l, err := scanLocation(rows)
			if err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	return out, wrap("get_locations", err)
}

func (s *Store) PutLocation(ctx context.Context, l model.Location) error {
	return wrap("put_location", s.withRetry(ctx, "put_location", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `INSERT INTO location (`+locationColumns+`)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (id) DO UPDATE SET
                name = excluded.name,
                lat_micro = excluded.lat_micro,
                lon_micro = excluded.lon_micro,
                geo_fence_radius = excluded.geo_fence_radius,
                price_code = excluded.price_code`,
			l.ID, l.AccountID, l.Name, l.LatMicroDeg, l.LonMicroDeg, l.GeoFenceRadius, l.PriceCode)
		return err
	}))
}

// LookupKnownLocation returns the smallest geo-fence of the account that
// contains the point, or nil. The bounding-box prefilter keeps the earth
// distance computation off most rows.
func (s *Store) LookupKnownLocation(ctx context.Context, accountID uuid.UUID, latMicro, lonMicro int64) (*model.Location, error) {
	var out *model.Location
	err := s.withRetry(ctx, "lookup_known_location", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT `+locationColumns+` FROM location
            WHERE account_id = $1
              AND abs(lat_micro - $2) < geo_fence_radius * 20
              AND abs(lon_micro - $3) < geo_fence_radius * 40
            ORDER BY geo_fence_radius`, accountID, latMicro, lonMicro)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			l, err := scanLocation(rows)
			if err != nil {
				return err
			}
			if l.Contains(latMicro, lonMicro) {
				cp := l
				out = &cp
				break
			}
		}
		return rows.Err()
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrap("lookup_known_location", err)
	}
	return out, nil
}
