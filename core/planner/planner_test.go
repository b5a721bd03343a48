package planner

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/curve"
	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/prediction"
	"github.com/voltplan/voltplan/core/store"
)

type fakeStats struct {
	st  *model.CurrentStats
	err error
}

func (f fakeStats) CurrentStats(context.Context, model.Vehicle, model.Location) (*model.CurrentStats, error) {
	return f.st, f.err
}

type fixture struct {
	st      *store.MemoryStore
	vehicle model.Vehicle
	home    model.Location
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	now := time.Date(2025, 4, 7, 8, 0, 0, 0, time.UTC)
	account := uuid.New()
	home := model.Location{ID: uuid.New(), AccountID: account, Name: "home", GeoFenceRadius: 80, PriceCode: "SE3"}
	v := model.Vehicle{
		ID:            uuid.New(),
		AccountID:     account,
		MinimumCharge: 50,
		MaximumCharge: 90,
		Level:         50,
		LocationID:    &home.ID,
		Updated:       now,
	}
	ctx := context.Background()
	require.NoError(t, st.PutLocation(ctx, home))
	require.NoError(t, st.PutVehicle(ctx, v))
	return &fixture{st: st, vehicle: v, home: home, now: now}
}

func (f *fixture) planner(stats StatsProvider, pred prediction.Engine) *Planner {
	return New(f.st, stats, pred, logger.NopLogger{}, nil, func() time.Time { return f.now })
}

func (f *fixture) loadCurve(t *testing.T, secondsPerLevel int, upTo int) {
	t.Helper()
	for l := 1; l <= upTo; l++ {
		require.NoError(t, f.st.SetChargeCurve(context.Background(), model.ChargeCurvePoint{
			VehicleID: f.vehicle.ID, LocationID: f.home.ID, Level: l, Duration: secondsPerLevel,
		}))
	}
}

func (f *fixture) plan(t *testing.T) (model.ChargePlan, string) {
	t.Helper()
	v, err := f.st.GetVehicle(context.Background(), f.vehicle.ID)
	require.NoError(t, err)
	return v.ChargePlan, v.SmartStatus
}

func TestColdStartProducesLearningFill(t *testing.T) {
	f := newFixture(t)
	p := f.planner(fakeStats{}, prediction.MockEngine{})

	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))
	plan, status := f.plan(t)
	require.Equal(t, StatusLearning, status)
	require.Len(t, plan, 1)
	s := plan[0]
	require.Nil(t, s.ChargeStart)
	require.Equal(t, 90, s.Level)
	require.Equal(t, model.ChargeFill, s.ChargeType)
	require.Equal(t, "learning", s.Comment)
	// 50 -> 90 on the default 100 s/percent curve, last percent shaved.
	require.NotNil(t, s.ChargeStop)
	require.Equal(t, f.now.Add(curve.Duration(nil, 50, 90)), s.ChargeStop.UTC())
}

func TestEmergencySegmentComesFirst(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Level = 20
	require.NoError(t, f.st.PutVehicle(context.Background(), f.vehicle))
	f.loadCurve(t, 60, 100)
	// Expensive morning, cheap later: the generated segments land well
	// after the emergency window.
	var pts []model.PricePoint
	for h := -1; h < 12; h++ {
		price := 2.0
		if h >= 3 {
			price = 0.5
		}
		pts = append(pts, model.PricePoint{Ts: f.now.Add(time.Duration(h) * time.Hour), Price: model.ScalePrice(price)})
	}
	require.NoError(t, f.st.UpdatePriceList(context.Background(), "SE3", pts))

	lct := 60.0
	stats := fakeStats{st: &model.CurrentStats{
		LevelChargeTime: &lct, WeeklyAvg7Price: 1, WeeklyAvg21Price: 1, Threshold: 100,
	}}
	pred := prediction.MockEngine{Routines: map[uuid.UUID]prediction.Routine{
		f.vehicle.ID: {Charge: 10, Before: f.now.Add(10 * time.Hour)},
	}}
	p := f.planner(stats, pred)

	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))
	plan, _ := f.plan(t)
	require.NotEmpty(t, plan)
	first := plan[0]
	require.Equal(t, model.ChargeMinimum, first.ChargeType)
	require.Nil(t, first.ChargeStart, "emergency charging starts now")
	require.Equal(t, 50, first.Level)
	require.NotNil(t, first.ChargeStop)
	require.Equal(t, f.now.Add(curve.Duration(curvePoints(f, t), 20, 50)), first.ChargeStop.UTC())
}

func curvePoints(f *fixture, t *testing.T) []model.ChargeCurvePoint {
	t.Helper()
	pts, err := f.st.GetChargeCurve(context.Background(), f.vehicle.ID, f.home.ID)
	require.NoError(t, err)
	return pts
}

func TestCalibrationOverridesPlan(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Level = 80
	require.NoError(t, f.st.PutVehicle(context.Background(), f.vehicle))
	f.loadCurve(t, 60, 95) // learned, but never calibrated to 100

	p := f.planner(fakeStats{}, prediction.MockEngine{})
	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))

	plan, status := f.plan(t)
	require.Equal(t, StatusCalibrating, status)
	require.Len(t, plan, 1)
	s := plan[0]
	require.Nil(t, s.ChargeStart)
	require.Nil(t, s.ChargeStop)
	require.Equal(t, 100, s.Level)
	require.Equal(t, model.ChargeCalibrate, s.ChargeType)
	require.Equal(t, "Charge calibration", s.Comment)
}

func TestTripTopUpScheduled(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Level = 60
	departure := f.now.Add(4 * time.Hour)
	// The departure needs more than the everyday ceiling allows; the
	// overshoot is pinned right before the trip.
	f.vehicle.Trip = &model.ScheduledTrip{Level: 95, Time: departure}
	require.NoError(t, f.st.PutVehicle(context.Background(), f.vehicle))
	f.loadCurve(t, 60, 100)

	// Flat prices keep the generator deterministic.
	var pts []model.PricePoint
	for h := -1; h < 36; h++ {
		pts = append(pts, model.PricePoint{Ts: f.now.Add(time.Duration(h) * time.Hour), Price: model.ScalePrice(1.0)})
	}
	require.NoError(t, f.st.UpdatePriceList(context.Background(), "SE3", pts))

	lct := 60.0
	stats := fakeStats{st: &model.CurrentStats{
		LevelChargeTime: &lct, WeeklyAvg7Price: 1, WeeklyAvg21Price: 1, Threshold: 100,
	}}
	pred := prediction.MockEngine{Routines: map[uuid.UUID]prediction.Routine{
		f.vehicle.ID: {Charge: 5, Before: f.now.Add(12 * time.Hour)},
	}}
	p := f.planner(stats, pred)
	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))

	plan, status := f.plan(t)
	require.Equal(t, StatusSmart, status)

	wantStart := departure.Add(-15 * time.Minute).Add(-curve.Duration(curvePoints(f, t), 90, 95))
	var topup *model.ChargePlanSegment
	for i := range plan {
		if plan[i].ChargeType == model.ChargeTrip && plan[i].Level == 95 {
			topup = &plan[i]
		}
	}
	require.NotNil(t, topup, "pinned top-up missing from plan: %v", plan)
	require.NotNil(t, topup.ChargeStart)
	require.Equal(t, wantStart, topup.ChargeStart.UTC())
	require.Nil(t, topup.ChargeStop, "top-up runs until the departure level is reached")
	require.Equal(t, "topping up before trip", topup.Comment)
}

func TestNoLocationClearsStatusKeepsPlan(t *testing.T) {
	f := newFixture(t)
	existing := model.ChargePlan{{Level: 70, ChargeType: model.ChargeFill}}
	require.NoError(t, f.st.SetChargePlan(context.Background(), f.vehicle.ID, existing, "old"))
	f.vehicle.LocationID = nil
	f.vehicle.ChargePlan = existing
	require.NoError(t, f.st.PutVehicle(context.Background(), f.vehicle))

	p := f.planner(fakeStats{}, prediction.MockEngine{})
	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))

	plan, status := f.plan(t)
	require.Empty(t, status)
	require.Len(t, plan, 1, "plan must stay untouched away from known locations")
}

func TestPausedVehicleGetsNoPlan(t *testing.T) {
	f := newFixture(t)
	until := f.now.Add(2 * time.Hour)
	f.vehicle.PausedUntil = &until
	require.NoError(t, f.st.PutVehicle(context.Background(), f.vehicle))

	p := f.planner(fakeStats{}, prediction.MockEngine{})
	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))

	plan, status := f.plan(t)
	require.Equal(t, StatusPaused, status)
	require.Nil(t, plan)
}

func TestExpiredTripCleared(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Trip = &model.ScheduledTrip{Level: 80, Time: f.now.Add(-2 * time.Hour)}
	require.NoError(t, f.st.PutVehicle(context.Background(), f.vehicle))

	p := f.planner(fakeStats{}, prediction.MockEngine{})
	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))

	v, err := f.st.GetVehicle(context.Background(), f.vehicle.ID)
	require.NoError(t, err)
	require.Nil(t, v.Trip, "expired trip schedules are cleared")
}

func TestReplanDegradesToLearningOnStatsFailure(t *testing.T) {
	f := newFixture(t)
	f.loadCurve(t, 60, 100)
	p := f.planner(fakeStats{err: store.NewError(store.KindTransient, "stats", nil)}, prediction.MockEngine{})

	require.NoError(t, p.RefreshVehicleChargePlan(context.Background(), f.vehicle.ID))
	_, status := f.plan(t)
	require.Equal(t, StatusLearning, status, "stats failure degrades to learning")
}
