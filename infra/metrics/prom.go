// Package metrics provides the Prometheus and InfluxDB implementations of
// the core metrics sinks.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/voltplan/voltplan/core/metrics"
)

// PromSink records control plane events in Prometheus metrics.
type PromSink struct {
	ingest    *prometheus.CounterVec
	replans   *prometheus.CounterVec
	replanDur prometheus.Histogram
	segments  prometheus.Histogram
	priceFeed *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ingest := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_samples_total",
		Help: "Total number of telemetry samples processed",
	}, []string{"driving", "charging", "dropped"})
	replans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replans_total",
		Help: "Total number of replan attempts",
	}, []string{"trigger", "failed"})
	replanDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "replan_duration_seconds",
		Help:    "Time spent computing one charge plan",
		Buckets: prometheus.DefBuckets,
	})
	segments := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_segments",
		Help:    "Number of segments in published plans",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	})
	priceFeed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_feed_updates_total",
		Help: "Total number of price list refreshes",
	}, []string{"price_code"})

	collectors := []prometheus.Collector{ingest, replans, replanDur, segments, priceFeed}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	return &PromSink{
		ingest:    collectors[0].(*prometheus.CounterVec),
		replans:   collectors[1].(*prometheus.CounterVec),
		replanDur: collectors[2].(prometheus.Histogram),
		segments:  collectors[3].(prometheus.Histogram),
		priceFeed: collectors[4].(*prometheus.CounterVec),
	}, nil
}

// RecordIngest counts one telemetry sample.
func (s *PromSink) RecordIngest(ev coremetrics.IngestEvent) error {
	s.ingest.WithLabelValues(
		strconv.FormatBool(ev.Driving),
		strconv.FormatBool(ev.Charging),
		strconv.FormatBool(ev.Dropped),
	).Inc()
	return nil
}

// RecordReplan counts and times one replan attempt.
func (s *PromSink) RecordReplan(ev coremetrics.ReplanEvent) error {
	s.replans.WithLabelValues(ev.Trigger, strconv.FormatBool(ev.Err != nil)).Inc()
	s.replanDur.Observe(ev.Duration.Seconds())
	if ev.Err == nil {
		s.segments.Observe(float64(ev.Segments))
	}
	return nil
}

// RecordPriceFeed counts one price list refresh.
func (s *PromSink) RecordPriceFeed(ev coremetrics.PriceFeedEvent) error {
	s.priceFeed.WithLabelValues(ev.PriceCode).Inc()
	return nil
}
