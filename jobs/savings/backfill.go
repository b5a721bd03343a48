// Package savings backfills the charging KPI store from closed connections.
package savings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/kpi"
	"github.com/voltplan/voltplan/core/store"
)

// Backfill aggregates the closed connections of a vehicle since the given
// time into daily KPI records.
func Backfill(ctx context.Context, st store.Store, kpiStore kpi.Store, vehicleID uuid.UUID, since time.Time) error {
	conns, err := st.ClosedConnections(ctx, vehicleID, since)
	if err != nil {
		return err
	}
	for _, c := range conns {
		rec := kpi.Record{
			VehicleID: c.VehicleID.String(),
			Date:      kpi.Day(c.EndTs),
			Cost:      c.Cost,
			Saved:     c.Saved,
			EnergyKWh: c.EnergyUsed / 60000,
		}
		if err := kpiStore.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
