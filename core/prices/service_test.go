package prices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
)

type recordingRefresher struct{ codes []string }

func (r *recordingRefresher) PriceListRefreshed(_ context.Context, code string) error {
	r.codes = append(r.codes, code)
	return nil
}

func TestUpdatePriceStoresAndRefreshes(t *testing.T) {
	st := store.NewMemoryStore()
	r := &recordingRefresher{}
	svc := New(st, r, logger.NopLogger{}, nil, nil)

	base := time.Date(2025, 4, 8, 0, 0, 0, 0, time.UTC)
	err := svc.UpdatePrice(context.Background(), IdentityService, "SE3", []model.PriceUpdate{
		{StartAt: base, Price: 0.42},
		{StartAt: base.Add(time.Hour), Price: 0.40},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"SE3"}, r.codes)

	p, err := st.PriceAt(context.Background(), "SE3", base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, model.ScalePrice(0.42), p.Price)
}

func TestUpdatePriceRequiresServiceIdentity(t *testing.T) {
	st := store.NewMemoryStore()
	svc := New(st, nil, logger.NopLogger{}, nil, nil)
	err := svc.UpdatePrice(context.Background(), Identity("user"), "SE3", nil)
	require.Error(t, err)
	require.Equal(t, store.KindAuthDenied, store.KindOf(err))
}

func TestUpdatePriceRejectsUnalignedPoints(t *testing.T) {
	st := store.NewMemoryStore()
	svc := New(st, nil, logger.NopLogger{}, nil, nil)
	err := svc.UpdatePrice(context.Background(), IdentityService, "SE3", []model.PriceUpdate{
		{StartAt: time.Date(2025, 4, 8, 0, 30, 0, 0, time.UTC), Price: 0.42},
	})
	require.Error(t, err)
	require.Equal(t, store.KindInvalidInput, store.KindOf(err))
}
