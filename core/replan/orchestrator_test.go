package replan

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/planlog"
	"github.com/voltplan/voltplan/core/store"
)

type countingPlanner struct {
	mu       sync.Mutex
	inflight map[uuid.UUID]int
	maxConc  map[uuid.UUID]int
	total    atomic.Int64
	delay    time.Duration
	err      error
}

func newCountingPlanner(delay time.Duration) *countingPlanner {
	return &countingPlanner{inflight: map[uuid.UUID]int{}, maxConc: map[uuid.UUID]int{}, delay: delay}
}

func (c *countingPlanner) RefreshVehicleChargePlan(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	c.inflight[id]++
	if c.inflight[id] > c.maxConc[id] {
		c.maxConc[id] = c.inflight[id]
	}
	c.mu.Unlock()
	time.Sleep(c.delay)
	c.mu.Lock()
	c.inflight[id]--
	c.mu.Unlock()
	c.total.Add(1)
	return c.err
}

func seedVehicles(t *testing.T, st *store.MemoryStore, n int) []model.Vehicle {
	t.Helper()
	account := uuid.New()
	out := make([]model.Vehicle, n)
	for i := range out {
		v := model.Vehicle{ID: uuid.New(), AccountID: account, MinimumCharge: 20, MaximumCharge: 80}
		require.NoError(t, st.PutVehicle(context.Background(), v))
		out[i] = v
	}
	return out
}

func TestRefreshSerializesPerVehicle(t *testing.T) {
	st := store.NewMemoryStore()
	vs := seedVehicles(t, st, 1)
	planner := newCountingPlanner(10 * time.Millisecond)
	o := New(st, planner, logger.NopLogger{}, nil, nil, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, o.Refresh(context.Background(), vs[0].ID))
		time.Sleep(2 * time.Millisecond)
	}
	o.Close()

	planner.mu.Lock()
	defer planner.mu.Unlock()
	require.Equal(t, 1, planner.maxConc[vs[0].ID], "replans for one vehicle must not overlap")
}

func TestNewerRequestSupersedesQueued(t *testing.T) {
	st := store.NewMemoryStore()
	vs := seedVehicles(t, st, 1)
	planner := newCountingPlanner(20 * time.Millisecond)
	o := New(st, planner, logger.NopLogger{}, nil, nil, nil)

	// Burst while the first replan is still running: the queue holds one
	// request, the rest collapse into it.
	for i := 0; i < 10; i++ {
		require.NoError(t, o.Refresh(context.Background(), vs[0].ID))
	}
	o.Close()
	require.LessOrEqual(t, planner.total.Load(), int64(3))
	require.GreaterOrEqual(t, planner.total.Load(), int64(1))
}

func TestAccountAndPriceFanOut(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	account := uuid.New()
	loc := model.Location{ID: uuid.New(), AccountID: account, PriceCode: "SE3"}
	require.NoError(t, st.PutLocation(ctx, loc))
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		v := model.Vehicle{ID: uuid.New(), AccountID: account, MaximumCharge: 80, LocationID: &loc.ID}
		require.NoError(t, st.PutVehicle(ctx, v))
		ids = append(ids, v.ID)
	}
	planner := newCountingPlanner(0)
	o := New(st, planner, logger.NopLogger{}, nil, nil, nil)

	require.NoError(t, o.RefreshAccount(ctx, account))
	o.Close()
	require.EqualValues(t, 3, planner.total.Load())

	planner2 := newCountingPlanner(0)
	o2 := New(st, planner2, logger.NopLogger{}, nil, nil, nil)
	require.NoError(t, o2.PriceListRefreshed(ctx, "SE3"))
	o2.Close()
	require.EqualValues(t, 3, planner2.total.Load())
	_ = ids
}

func TestFailedReplanAudited(t *testing.T) {
	st := store.NewMemoryStore()
	vs := seedVehicles(t, st, 1)
	dir := t.TempDir()
	audit, err := planlog.NewJSONLStore(dir + "/plans.jsonl")
	require.NoError(t, err)

	planner := newCountingPlanner(0)
	planner.err = store.NewError(store.KindTransient, "stats", nil)
	o := New(st, planner, logger.NopLogger{}, nil, nil, audit)
	require.NoError(t, o.Refresh(context.Background(), vs[0].ID))
	o.Close()

	recs, err := audit.Query(context.Background(), planlog.Query{VehicleID: vs[0].ID.String()})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotEmpty(t, recs[0].Error)
}
