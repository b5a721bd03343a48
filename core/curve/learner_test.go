package curve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/model"
)

var t0 = time.Date(2025, 4, 7, 22, 0, 0, 0, time.UTC)

func TestAdvanceDiscardsFirstGain(t *testing.T) {
	cc := model.ChargeCurrent{StartTs: t0, StartLevel: 40, StartAdded: 0}
	cc, point := Advance(cc, 40, 41, 7000, 120, 85, t0.Add(90*time.Second))
	require.Nil(t, point, "first gain after charge start is noise")
	require.Equal(t, 41, cc.StartLevel)
	require.Empty(t, cc.Powers)
	require.Equal(t, t0.Add(90*time.Second), cc.StartTs)
}

func TestAdvancePersistsSingleGain(t *testing.T) {
	cc := model.ChargeCurrent{StartTs: t0, StartLevel: 41, StartAdded: 120}
	cc, _ = Advance(cc, 40, 41, 7000, 150, 80, t0.Add(30*time.Second))
	cc, _ = Advance(cc, 40, 41, 7400, 180, 90, t0.Add(60*time.Second))
	cc, point := Advance(cc, 40, 42, 7200, 240, 85, t0.Add(120*time.Second))

	require.NotNil(t, point)
	require.Equal(t, 41, point.Level)
	require.Equal(t, 120, point.Duration)
	// avg power over the three samples feeding this percent
	require.InDelta(t, 7200.0, point.EnergyUsed*60/120, 1)
	require.InDelta(t, 120.0, point.EnergyAdded, 0.001)
	require.Equal(t, 85, point.AvgDeciTemp)

	require.Equal(t, 42, cc.StartLevel)
	require.Equal(t, 240.0, cc.StartAdded)
	require.Empty(t, cc.Powers)
}

func TestAdvanceDiscardsMultiPercentJump(t *testing.T) {
	cc := model.ChargeCurrent{StartTs: t0, StartLevel: 41, StartAdded: 100}
	cc, point := Advance(cc, 40, 44, 7000, 500, 80, t0.Add(20*time.Minute))
	require.Nil(t, point, "offline gap gains are unreliable")
	require.Equal(t, 44, cc.StartLevel)
	require.Equal(t, 500.0, cc.StartAdded)
}

func TestAdvanceNoGainAccumulates(t *testing.T) {
	cc := model.ChargeCurrent{StartTs: t0, StartLevel: 41}
	cc, point := Advance(cc, 40, 41, 7000, 100, 80, t0.Add(30*time.Second))
	require.Nil(t, point)
	require.Len(t, cc.Powers, 1)
	require.Equal(t, 41, cc.StartLevel)
	require.Equal(t, t0, cc.StartTs, "window start unchanged without a gain")
}

func TestDurationSumsCurveWithFallback(t *testing.T) {
	points := []model.ChargeCurvePoint{
		{Level: 50, Duration: 60},
		{Level: 51, Duration: 80},
	}
	// 50 and 51 learned, 52 falls back to the default; the last percent is
	// shaved to three quarters.
	got := Duration(points, 50, 52)
	want := time.Duration(60+80) * time.Second
	want += time.Duration(float64(DefaultSecondsPerLevel)*0.75*1000) * time.Millisecond
	require.Equal(t, want, got)
}

func TestDurationZeroWhenAtTarget(t *testing.T) {
	require.Zero(t, Duration(nil, 80, 80))
	require.Zero(t, Duration(nil, 90, 80))
}

func TestDurationDefaultCurve(t *testing.T) {
	// 50 -> 90 with an unlearned curve: 40 full percents plus the shaved
	// last one, 100 s each.
	got := Duration(nil, 50, 90)
	want := time.Duration(40*100)*time.Second + 75*time.Second
	require.Equal(t, want, got)
}

func TestMaxLevel(t *testing.T) {
	require.Equal(t, 0, MaxLevel(nil))
	require.Equal(t, 87, MaxLevel([]model.ChargeCurvePoint{{Level: 12}, {Level: 87}, {Level: 3}}))
}
