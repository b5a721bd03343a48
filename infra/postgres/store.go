// Package postgres implements the persistence gateway on PostgreSQL via
// pgx. All operations surface typed store errors; transient failures are
// retried with exponential backoff before they reach the caller.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/store"
)

// maxRetries bounds the internal retry loop for transient failures.
const maxRetries = 3

// Store is the PostgreSQL gateway.
type Store struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, databaseURL string, log logger.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// wrap maps driver errors onto the store taxonomy.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.NewError(store.KindNotFound, op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.NewError(store.KindConflict, op, err)
		case "23514", "22001", "22003":
			return store.NewError(store.KindInvalidInput, op, err)
		}
	}
	return store.NewError(store.KindTransient, op, err)
}

// retryable reports whether the failure is worth retrying inside the
// gateway: serialization failures, deadlocks and broken connections.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "08000", "08003", "08006":
			return true
		}
	}
	return false
}

// withRetry runs fn up to maxRetries times with exponential backoff.
func (s *Store) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := 50 * time.Millisecond
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		if attempt < maxRetries {
			s.log.Warnf("%s: transient failure (attempt %d/%d): %v", op, attempt, maxRetries, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	return err
}
