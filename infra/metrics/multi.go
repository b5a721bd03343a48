package metrics

import coremetrics "github.com/voltplan/voltplan/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordIngest forwards the sample to all sinks, returning the first error.
func (m *MultiSink) RecordIngest(ev coremetrics.IngestEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordIngest(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordReplan forwards the replan outcome to all sinks.
func (m *MultiSink) RecordReplan(ev coremetrics.ReplanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordReplan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPriceFeed forwards the price refresh to all sinks.
func (m *MultiSink) RecordPriceFeed(ev coremetrics.PriceFeedEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPriceFeed(ev); err != nil {
			return err
		}
	}
	return nil
}
