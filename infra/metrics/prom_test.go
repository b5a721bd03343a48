package metrics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/voltplan/voltplan/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordIngest(coremetrics.IngestEvent{VehicleID: uuid.New(), Driving: true}))
	require.NoError(t, sink.RecordReplan(coremetrics.ReplanEvent{Trigger: "manual", Segments: 2, Duration: 30 * time.Millisecond}))
	require.NoError(t, sink.RecordPriceFeed(coremetrics.PriceFeedEvent{PriceCode: "SE3", Points: 24}))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["telemetry_samples_total"])
	require.True(t, names["replans_total"])
	require.True(t, names["replan_duration_seconds"])
	require.True(t, names["price_feed_updates_total"])
}

func TestPromSinkDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err, "re-registration must reuse existing collectors")
}
