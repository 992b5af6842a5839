// Package metrics records publish run and step metrics.
//
// Components receive a Recorder; NoopRecorder is the default so callers never
// nil-check. PrometheusRecorder registers the reportpub_* collectors on a
// registry and can export them to a node-exporter textfile after a run.
package metrics
