package planlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/model"
)

func record(ts time.Time, vehicle, trigger string) Record {
	return Record{
		Timestamp:   ts,
		VehicleID:   vehicle,
		Trigger:     trigger,
		SmartStatus: "Smart charging enabled",
		Plan:        model.ChargePlan{{Level: 80, ChargeType: model.ChargeFill, Comment: "low price"}},
		DurationMs:  12,
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, record(now, "v1", "manual")))
	require.NoError(t, s.Append(ctx, record(now.Add(time.Hour), "v2", "price_feed")))
	require.NoError(t, s.Append(ctx, record(now.Add(2*time.Hour), "v1", "price_feed")))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	v1, err := s.Query(ctx, Query{VehicleID: "v1"})
	require.NoError(t, err)
	require.Len(t, v1, 2)
	require.Equal(t, model.ChargeFill, v1[0].Plan[0].ChargeType)

	windowed, err := s.Query(ctx, Query{Start: now.Add(30 * time.Minute), Trigger: "price_feed"})
	require.NoError(t, err)
	require.Len(t, windowed, 2)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "plans.jsonl"))
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()
	testStore(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "plans.jsonl"), 5, 2, 1)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()
	testStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()
	testStore(t, s)
}
