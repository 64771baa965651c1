// Package relay reports precise slave termination detail to an optional
// controller over a framed side channel. The relay is best-effort telemetry:
// it never blocks the lifecycle loop past its timeout and is never
// load-bearing for correctness.
package relay

import (
	"io"
	"time"

	"github.com/psantana5/procworker/internal/frame"
	"github.com/psantana5/procworker/internal/logging"
	"github.com/psantana5/procworker/internal/report"
	"github.com/psantana5/procworker/internal/status"
)

// DefaultTimeout bounds one side-channel write.
const DefaultTimeout = 10 * time.Second

// Message is the framed record written for each abnormal termination.
type Message struct {
	Type   string               `json:"type"`
	Status status.ProcessStatus `json:"status"`
}

const TypeSlaveTerminated = "slave_terminated"

// Relay writes termination records to the controller descriptor. A nil Relay
// is valid and drops everything, for workers spawned without a controller.
type Relay struct {
	w       io.Writer
	timeout time.Duration
	log     *logging.Logger
	metrics *report.Metrics
}

// New builds a relay over the controller descriptor. Returns nil when no
// descriptor is configured.
func New(w io.Writer, timeout time.Duration, log *logging.Logger) *Relay {
	if w == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Relay{w: w, timeout: timeout, log: log, metrics: report.Global()}
}

// Report sends one termination record, unless the status is an expected
// outcome (Exited 0 or 1), which the controller does not want to hear about.
// On timeout the attempt is logged and abandoned; the write goroutine is left
// to finish or fail on its own.
func (r *Relay) Report(st status.ProcessStatus) {
	if r == nil || st.Expected() {
		return
	}

	done := make(chan error, 1)
	go func() {
		_, err := frame.WriteJSON(r.w, Message{Type: TypeSlaveTerminated, Status: st})
		done <- err
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			r.log.Warn("controller relay failed", map[string]interface{}{
				"status": st.String(),
				"error":  err.Error(),
			})
			return
		}
		r.metrics.RelaysSent.Add(1)
	case <-timer.C:
		r.metrics.RelayTimeouts.Add(1)
		r.log.Warn("controller relay timed out", map[string]interface{}{
			"status":  st.String(),
			"timeout": r.timeout.String(),
		})
	}
}
