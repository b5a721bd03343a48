package ingress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/ingest"
	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/prices"
	"github.com/voltplan/voltplan/core/store"
)

func TestTelemetryHandlerUnknownVehicle(t *testing.T) {
	st := store.NewMemoryStore()
	ing := ingest.New(st, logger.NopLogger{}, nil, nil, nil)
	h := NewTelemetryHandler(ing)

	body := strings.NewReader(`{"id":"` + uuid.NewString() + `","batteryLevel":50}`)
	req := httptest.NewRequest(http.MethodPost, "/api/telemetry", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTelemetryHandlerAcceptsSample(t *testing.T) {
	st := store.NewMemoryStore()
	v := model.Vehicle{ID: uuid.New(), AccountID: uuid.New(), MaximumCharge: 80}
	require.NoError(t, st.PutVehicle(context.Background(), v))
	ing := ingest.New(st, logger.NopLogger{}, nil, nil, nil)
	h := NewTelemetryHandler(ing)

	body := strings.NewReader(`{"id":"` + v.ID.String() + `","batteryLevel":55,"odometer":1000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/telemetry", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	got, err := st.GetVehicle(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, 55, got.Level)
}

func TestPriceHandlerRejectsBadToken(t *testing.T) {
	st := store.NewMemoryStore()
	svc := prices.New(st, nil, logger.NopLogger{}, nil, nil)
	h := NewPriceHandler(svc, "secret")

	body := strings.NewReader(`[{"startAt":"2025-04-08T00:00:00Z","price":0.4}]`)
	req := httptest.NewRequest(http.MethodPost, "/api/prices/SE3", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPriceHandlerLoadsPrices(t *testing.T) {
	st := store.NewMemoryStore()
	svc := prices.New(st, nil, logger.NopLogger{}, nil, nil)
	h := NewPriceHandler(svc, "secret")

	body := strings.NewReader(`[{"startAt":"2025-04-08T00:00:00Z","price":0.4}]`)
	req := httptest.NewRequest(http.MethodPost, "/api/prices/SE3", body)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	_, err := st.LatestPriceTs(context.Background(), "SE3")
	require.NoError(t, err)
}
