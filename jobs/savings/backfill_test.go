package savings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/kpi"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

func TestBackfillAggregatesByDay(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	vid := uuid.New()
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	for i, cost := range []float64{1.5, 2.5} {
		require.NoError(t, st.PutConnection(ctx, model.Connection{
			ID:         uuid.New(),
			VehicleID:  vid,
			LocationID: uuid.New(),
			StartTs:    day.Add(time.Duration(i*6) * time.Hour),
			EndTs:      day.Add(time.Duration(i*6+4) * time.Hour),
			EnergyUsed: 600000, // 10 kWh
			Cost:       cost,
			Saved:      0.5,
			Connected:  false,
		}))
	}

	kpiStore := kpi.NewMemoryStore()
	require.NoError(t, Backfill(ctx, st, kpiStore, vid, day.Add(-time.Hour)))

	recs, err := kpiStore.Query(vid.String(), day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.InDelta(t, 4.0, recs[0].Cost, 0.001)
	require.InDelta(t, 1.0, recs[0].Saved, 0.001)
	require.InDelta(t, 20.0, recs[0].EnergyKWh, 0.001)
}
