package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

func fixture(t *testing.T) (*store.MemoryStore, model.Vehicle, model.Location, time.Time) {
	t.Helper()
	st := store.NewMemoryStore()
	now := time.Date(2025, 4, 7, 12, 0, 0, 0, time.UTC)
	loc := model.Location{ID: uuid.New(), AccountID: uuid.New(), Name: "home", GeoFenceRadius: 50, PriceCode: "SE3"}
	v := model.Vehicle{
		ID:            uuid.New(),
		AccountID:     loc.AccountID,
		MinimumCharge: 40,
		MaximumCharge: 90,
		Level:         60,
		LocationID:    &loc.ID,
		Updated:       now,
	}
	require.NoError(t, st.PutLocation(context.Background(), loc))
	require.NoError(t, st.PutVehicle(context.Background(), v))
	return st, v, loc, now
}

func loadPrices(t *testing.T, st *store.MemoryStore, now time.Time, days int, price float64) {
	t.Helper()
	var pts []model.PricePoint
	start := now.Add(-time.Duration(days) * 24 * time.Hour).Truncate(time.Hour)
	for ts := start; ts.Before(now.Add(24 * time.Hour)); ts = ts.Add(time.Hour) {
		pts = append(pts, model.PricePoint{Ts: ts, Price: model.ScalePrice(price)})
	}
	require.NoError(t, st.UpdatePriceList(context.Background(), "SE3", pts))
}

func TestCreateNewStatsWithoutAnyData(t *testing.T) {
	st, v, loc, now := fixture(t)
	e := NewEngine(st, logger.NopLogger{}, func() time.Time { return now })

	got, err := e.CreateNewStats(context.Background(), v, loc)
	require.NoError(t, err)
	require.Nil(t, got.LevelChargeTime)
	require.Equal(t, DefaultThreshold, got.Threshold)
	require.Zero(t, got.WeeklyAvg7Price)
}

func TestCreateNewStatsMedianChargeTime(t *testing.T) {
	st, v, loc, now := fixture(t)
	ctx := context.Background()
	for i, d := range []int{50, 70, 90} {
		require.NoError(t, st.SetChargeCurve(ctx, model.ChargeCurvePoint{
			VehicleID: v.ID, LocationID: loc.ID, Level: 50 + i, Duration: d,
		}))
	}
	loadPrices(t, st, now, 21, 1.0)

	e := NewEngine(st, logger.NopLogger{}, func() time.Time { return now })
	got, err := e.CreateNewStats(ctx, v, loc)
	require.NoError(t, err)
	require.NotNil(t, got.LevelChargeTime)
	require.InDelta(t, 70, *got.LevelChargeTime, 0.001)
	require.InDelta(t, 1.0, got.WeeklyAvg7Price, 0.001)
	require.InDelta(t, 1.0, got.WeeklyAvg21Price, 0.001)
}

func TestCurrentStatsCachesUntilPriceInsert(t *testing.T) {
	st, v, loc, now := fixture(t)
	ctx := context.Background()
	loadPrices(t, st, now, 7, 0.8)

	e := NewEngine(st, logger.NopLogger{}, func() time.Time { return now })
	first, err := e.CurrentStats(ctx, v, loc)
	require.NoError(t, err)
	second, err := e.CurrentStats(ctx, v, loc)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "no price insert, same row")

	// A fresh price point invalidates the cache.
	require.NoError(t, st.UpdatePriceList(ctx, "SE3", []model.PricePoint{{
		Ts: now.Add(36 * time.Hour).Truncate(time.Hour), Price: model.ScalePrice(0.9),
	}}))
	third, err := e.CurrentStats(ctx, v, loc)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, third.ID, "stale row must be recomputed")
}

func TestCreateNewStatsSweepsHistory(t *testing.T) {
	st, v, loc, now := fixture(t)
	ctx := context.Background()
	for l := 40; l <= 90; l++ {
		require.NoError(t, st.SetChargeCurve(ctx, model.ChargeCurvePoint{
			VehicleID: v.ID, LocationID: loc.ID, Level: l, Duration: 600,
		}))
	}
	loadPrices(t, st, now, 21, 1.0)

	// Two closed ten-hour connections a week apart; the first spends 30
	// percent (80 -> 50) before the second plug-in.
	for week := 2; week >= 1; week-- {
		start := now.Add(-time.Duration(week) * 7 * 24 * time.Hour)
		require.NoError(t, st.PutConnection(ctx, model.Connection{
			ID:         uuid.New(),
			VehicleID:  v.ID,
			LocationID: loc.ID,
			StartTs:    start,
			EndTs:      start.Add(10 * time.Hour),
			StartLevel: 50,
			EndLevel:   80,
			Connected:  false,
		}))
	}

	e := NewEngine(st, logger.NopLogger{}, func() time.Time { return now })
	got, err := e.CreateNewStats(ctx, v, loc)
	require.NoError(t, err)
	// Flat prices give every hour a threshold of 1.0, so the stored value is
	// 100 whether or not the sweep finds a valid run; only a learned charge
	// time and a positive threshold are checked.
	require.NotNil(t, got.LevelChargeTime)
	require.Greater(t, got.Threshold, 0)
}
