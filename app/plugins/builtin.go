package plugins

import (
	"fmt"

	"github.com/voltplan/voltplan/core/factory"
	coremetrics "github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/planlog"
	"github.com/voltplan/voltplan/core/prediction"
	"github.com/voltplan/voltplan/infra/metrics"
)

func init() {
	RegisterMetrics("prometheus", func(_ string, conf map[string]any) (coremetrics.MetricsSink, error) {
		var c coremetrics.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return metrics.NewPromSink(c)
	})
	RegisterMetrics("influx", func(_ string, conf map[string]any) (coremetrics.MetricsSink, error) {
		var c coremetrics.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return metrics.NewInfluxSinkWithFallback(c), nil
	})
	RegisterPlanLogStore("jsonl", func(_ string, conf map[string]any) (planlog.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("jsonl plan log: path required")
		}
		return planlog.NewJSONLStore(c.Path)
	})
	RegisterPlanLogStore("sqlite", func(_ string, conf map[string]any) (planlog.Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite plan log: path required")
		}
		return planlog.NewSQLiteStore(c.Path)
	})
	RegisterPrediction("mock", func(_ string, _ map[string]any) (prediction.Engine, error) {
		return prediction.MockEngine{}, nil
	})
}
