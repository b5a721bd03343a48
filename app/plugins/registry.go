// Package plugins holds the named factories the service wiring resolves
// pluggable components from: metrics sinks, plan audit stores and prediction
// engines. Price connectors are resolved by connectors/factory instead.
package plugins

import (
	coremetrics "github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/planlog"
	"github.com/voltplan/voltplan/core/prediction"
)

// MetricsFactory builds a metrics sink from raw config.
type MetricsFactory func(name string, conf map[string]any) (coremetrics.MetricsSink, error)

// PlanLogFactory builds a plan audit store from raw config.
type PlanLogFactory func(name string, conf map[string]any) (planlog.Store, error)

// PredictionFactory builds a prediction engine from raw config.
type PredictionFactory func(name string, conf map[string]any) (prediction.Engine, error)

var (
	MetricsExporters = map[string]MetricsFactory{}
	PlanLogStores    = map[string]PlanLogFactory{}
	Predictions      = map[string]PredictionFactory{}
)

func RegisterMetrics(name string, f MetricsFactory)       { MetricsExporters[name] = f }
func RegisterPlanLogStore(name string, f PlanLogFactory)  { PlanLogStores[name] = f }
func RegisterPrediction(name string, f PredictionFactory) { Predictions[name] = f }
