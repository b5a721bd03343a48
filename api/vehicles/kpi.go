package vehicles

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/voltplan/voltplan/core/kpi"
)

// NewKPIHandler exposes charging KPIs via GET /api/vehicles/{id}/kpis.
func NewKPIHandler(store kpi.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] != "kpis" {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		start, _ := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		end, _ := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if end.IsZero() {
			end = time.Now().UTC()
		}
		recs, err := store.Query(id, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			Date         string  `json:"date"`
			Cost         float64 `json:"cost"`
			Saved        float64 `json:"saved"`
			EnergyKWh    float64 `json:"energy_kwh"`
			SavingsRatio float64 `json:"savings_ratio"`
		}
		outSlice := make([]out, len(recs))
		for i, rec := range recs {
			outSlice[i] = out{
				Date:         rec.Date.Format("2006-01-02"),
				Cost:         rec.Cost,
				Saved:        rec.Saved,
				EnergyKWh:    rec.EnergyKWh,
				SavingsRatio: rec.SavingsRatio(),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(outSlice); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
