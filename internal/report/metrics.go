// Package report keeps boring counters about the worker lifecycle. Every
// counter must be explainable by pointing at a single slave termination; no
// histograms, no interpretation.
package report

import "sync/atomic"

// Metrics counts slave lifecycle events on a worker process.
type Metrics struct {
	SlavesSpawned  atomic.Uint64 // one per spawned slave process
	JobsCompleted  atomic.Uint64 // slave exited 0
	SlaveFaults    atomic.Uint64 // slave exited with any abnormal code
	SlavesSignaled atomic.Uint64
	SlavesStopped  atomic.Uint64

	RelaysSent    atomic.Uint64 // termination records delivered to controller
	RelayTimeouts atomic.Uint64 // records abandoned after the relay timeout
}

var globalMetrics = &Metrics{}

// Global returns the process-wide metrics instance.
func Global() *Metrics {
	return globalMetrics
}

// Snapshot returns current counter values.
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"slaves_spawned":  m.SlavesSpawned.Load(),
		"jobs_completed":  m.JobsCompleted.Load(),
		"slave_faults":    m.SlaveFaults.Load(),
		"slaves_signaled": m.SlavesSignaled.Load(),
		"slaves_stopped":  m.SlavesStopped.Load(),
		"relays_sent":     m.RelaysSent.Load(),
		"relay_timeouts":  m.RelayTimeouts.Load(),
	}
}
