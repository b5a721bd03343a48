// Package vehicles exposes vehicle status and configuration endpoints.
package vehicles

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/replan"
	"github.com/voltplan/voltplan/core/store"
	vehiclestatus "github.com/voltplan/voltplan/core/vehiclestatus"
)

// NewStatusHandler returns an HTTP handler exposing vehicle status data via
// GET /api/vehicles/status.
func NewStatusHandler(statuses vehiclestatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f := vehiclestatus.Filter{}
		if s := r.URL.Query().Get("account_id"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				http.Error(w, "bad account_id", http.StatusBadRequest)
				return
			}
			f.AccountID = id
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statuses.List(f)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// ConfigUpdate is the settable subset of the vehicle row.
type ConfigUpdate struct {
	Name         *string          `json:"name,omitempty"`
	MinimumLevel *int             `json:"minimumLevel,omitempty"`
	MaximumLevel *int             `json:"maximumLevel,omitempty"`
	AnxietyLevel *int             `json:"anxietyLevel,omitempty"`
	TripSchedule *tripSchedule    `json:"tripSchedule,omitempty"`
	ClearTrip    bool             `json:"clearTrip,omitempty"`
	PausedUntil  *time.Time       `json:"pausedUntil,omitempty"`
	Status       *string          `json:"status,omitempty"`
	ProviderData *json.RawMessage `json:"providerData,omitempty"`
}

type tripSchedule struct {
	Level int       `json:"level"`
	Time  time.Time `json:"time"`
}

// NewConfigHandler applies configuration updates via
// POST /api/vehicles/{id}/config and triggers a replan.
func NewConfigHandler(st store.Store, orch *replan.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] != "config" {
			http.NotFound(w, r)
			return
		}
		id, err := uuid.Parse(parts[0])
		if err != nil {
			http.Error(w, "bad vehicle id", http.StatusBadRequest)
			return
		}
		var upd ConfigUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		v, err := st.GetVehicle(r.Context(), id)
		if err != nil {
			if store.IsNotFound(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		apply(&v, upd)
		if err := v.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := st.PutVehicle(r.Context(), v); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if orch != nil {
			_ = orch.Refresh(r.Context(), id)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func apply(v *model.Vehicle, upd ConfigUpdate) {
	if upd.Name != nil {
		v.Name = *upd.Name
	}
	if upd.MinimumLevel != nil {
		v.MinimumCharge = *upd.MinimumLevel
	}
	if upd.MaximumLevel != nil {
		v.MaximumCharge = *upd.MaximumLevel
	}
	if upd.AnxietyLevel != nil {
		v.AnxietyLevel = *upd.AnxietyLevel
	}
	if upd.TripSchedule != nil {
		v.Trip = &model.ScheduledTrip{Level: upd.TripSchedule.Level, Time: upd.TripSchedule.Time}
	}
	if upd.ClearTrip {
		v.Trip = nil
	}
	if upd.PausedUntil != nil {
		v.PausedUntil = upd.PausedUntil
	}
	if upd.Status != nil {
		v.Status = *upd.Status
	}
	if upd.ProviderData != nil {
		v.ProviderData = *upd.ProviderData
	}
}
