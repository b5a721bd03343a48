package vehicles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
	vehiclestatus "github.com/voltplan/voltplan/core/vehiclestatus"
)

func TestStatusHandlerListsSnapshots(t *testing.T) {
	statuses := vehiclestatus.NewMemoryStore()
	account := uuid.New()
	statuses.Set(vehiclestatus.Status{VehicleID: uuid.New(), AccountID: account, SmartStatus: "Smart charging enabled"})
	statuses.Set(vehiclestatus.Status{VehicleID: uuid.New(), AccountID: uuid.New()})

	h := NewStatusHandler(statuses)
	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/status?account_id="+account.String(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []vehiclestatus.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "Smart charging enabled", out[0].SmartStatus)
}

func TestConfigHandlerUpdatesBounds(t *testing.T) {
	st := store.NewMemoryStore()
	v := model.Vehicle{ID: uuid.New(), AccountID: uuid.New(), MinimumCharge: 20, MaximumCharge: 80}
	require.NoError(t, st.PutVehicle(context.Background(), v))

	h := NewConfigHandler(st, nil)
	body := strings.NewReader(`{"minimumLevel": 40, "maximumLevel": 90, "anxietyLevel": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/"+v.ID.String()+"/config", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := st.GetVehicle(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, 40, got.MinimumCharge)
	require.Equal(t, 90, got.MaximumCharge)
	require.Equal(t, 1, got.AnxietyLevel)
}

func TestConfigHandlerRejectsBadBounds(t *testing.T) {
	st := store.NewMemoryStore()
	v := model.Vehicle{ID: uuid.New(), AccountID: uuid.New(), MinimumCharge: 20, MaximumCharge: 80}
	require.NoError(t, st.PutVehicle(context.Background(), v))

	h := NewConfigHandler(st, nil)
	body := strings.NewReader(`{"minimumLevel": 95, "maximumLevel": 50}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/"+v.ID.String()+"/config", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
