package postgres

import (
	"context"
	"time"

	"github.com/voltplan/voltplan/core/model"
)

func (s *Store) UpdatePriceList(ctx context.Context, priceCode string, points []model.PricePoint) error {
	return wrap("update_price_list", s.withRetry(ctx, "update_price_list", func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()
		for _, p := range points {
			if _, err := tx.Exec(ctx, `INSERT INTO price_list (price_code, ts, price)
                VALUES ($1, $2, $3)
                ON CONFLICT (price_code, ts) DO UPDATE SET price = excluded.price`,
				priceCode, p.Ts, p.Price); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	}))
}

func (s *Store) LatestPriceTs(ctx context.Context, priceCode string) (time.Time, error) {
	var ts time.Time
	err := s.withRetry(ctx, "latest_price_ts", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`SELECT ts FROM price_list WHERE price_code = $1 ORDER BY ts DESC LIMIT 1`,
			priceCode).Scan(&ts)
	})
	return ts, wrap("latest_price_ts", err)
}

func (s *Store) PriceAt(ctx context.Context, priceCode string, ts time.Time) (model.PricePoint, error) {
	p := model.PricePoint{PriceCode: priceCode}
	err := s.withRetry(ctx, "price_at", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`SELECT ts, price FROM price_list WHERE price_code = $1 AND ts <= $2 ORDER BY ts DESC LIMIT 1`,
			priceCode, ts).Scan(&p.Ts, &p.Price)
	})
	return p, wrap("price_at", err)
}

func (s *Store) PricesInRange(ctx context.Context, priceCode string, from, to time.Time) ([]model.PricePoint, error) {
	var out []model.PricePoint
	err := s.withRetry(ctx, "prices_in_range", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx,
			`SELECT ts, price FROM price_list WHERE price_code = $1 AND ts >= $2 AND ts < $3 ORDER BY ts`,
			priceCode, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			p := model.PricePoint{PriceCode: priceCode}
			if err := rows.Scan(&p.Ts, &p.Price); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, wrap("prices_in_range", err)
}
