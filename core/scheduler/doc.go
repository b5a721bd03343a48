// Package scheduler drives the recurring control plane jobs: polling the
// day-ahead price feed for each configured area and sweeping every account
// through a nightly replan so plans never go stale between telemetry
// samples.
package scheduler
