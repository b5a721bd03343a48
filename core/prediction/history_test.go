package prediction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

func TestPredictDisconnectFromWeekdayHistory(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	loc := model.Location{ID: uuid.New(), AccountID: uuid.New(), PriceCode: "SE3"}
	v := model.Vehicle{ID: uuid.New(), AccountID: loc.AccountID, MaximumCharge: 90}
	require.NoError(t, st.PutLocation(ctx, loc))
	require.NoError(t, st.PutVehicle(ctx, v))

	// Monday 08:00 disconnects for four prior weeks, each followed by a
	// plug-in 30 percent lower.
	now := time.Date(2025, 4, 7, 6, 0, 0, 0, time.UTC) // a Monday
	for week := 4; week >= 1; week-- {
		end := now.Add(-time.Duration(week) * 7 * 24 * time.Hour).Add(2 * time.Hour) // 08:00
		require.NoError(t, st.PutConnection(ctx, model.Connection{
			ID:         uuid.New(),
			VehicleID:  v.ID,
			LocationID: loc.ID,
			StartTs:    end.Add(-10 * time.Hour),
			EndTs:      end,
			StartLevel: 50,
			EndLevel:   80,
			Connected:  false,
		}))
		require.NoError(t, st.PutConnection(ctx, model.Connection{
			ID:         uuid.New(),
			VehicleID:  v.ID,
			LocationID: loc.ID,
			StartTs:    end.Add(10 * time.Hour),
			EndTs:      end.Add(20 * time.Hour),
			StartLevel: 50,
			EndLevel:   80,
			Connected:  false,
		}))
	}

	e := NewHistoryEngine(st)
	r, err := e.PredictDisconnect(context.Background(), v, loc, now)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.InDelta(t, 30, r.Charge, 1, "each cycle spent 30 percent")
	require.Equal(t, 8, r.Before.Hour(), "deadline projects the 08:00 disconnect onto today")
	require.Equal(t, now.Truncate(24*time.Hour).Add(8*time.Hour), r.Before)
}

func TestPredictDisconnectNeedsHistory(t *testing.T) {
	st := store.NewMemoryStore()
	loc := model.Location{ID: uuid.New(), AccountID: uuid.New()}
	v := model.Vehicle{ID: uuid.New(), AccountID: loc.AccountID, MaximumCharge: 90}
	e := NewHistoryEngine(st)
	r, err := e.PredictDisconnect(context.Background(), v, loc, time.Now().UTC())
	require.NoError(t, err)
	require.Nil(t, r)
}
