// Package ingress exposes the telemetry and price ingestion endpoints.
package ingress

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/voltplan/voltplan/core/ingest"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/prices"
	"github.com/voltplan/voltplan/core/store"
)

// NewTelemetryHandler accepts one telemetry sample via
// POST /api/telemetry.
func NewTelemetryHandler(ing *ingest.Ingestor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var in model.UpdateVehicleDataInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := ing.UpdateVehicleData(r.Context(), in, time.Now().UTC()); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

// NewPriceHandler accepts a price list via POST /api/prices/{code}.
// Requests must carry the internal service token when one is configured.
func NewPriceHandler(svc *prices.Service, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		identity := prices.IdentityService
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			identity = prices.Identity("anonymous")
		}
		code := strings.TrimPrefix(r.URL.Path, "/api/prices/")
		var updates []model.PriceUpdate
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := svc.UpdatePrice(r.Context(), identity, code, updates); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

func writeStoreError(w http.ResponseWriter, err error) {
	var se *store.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case store.KindNotFound:
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case store.KindInvalidInput:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case store.KindAuthDenied:
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		case store.KindConflict:
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
