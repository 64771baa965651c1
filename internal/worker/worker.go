// Package worker implements the long-lived lifecycle loop: one disposable
// slave process per job, reaped and classified before the next job is
// touched. One job per slave. One slave at a time. The exit code is the
// contract.
package worker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/psantana5/procworker/internal/frame"
	"github.com/psantana5/procworker/internal/logging"
	"github.com/psantana5/procworker/internal/relay"
	"github.com/psantana5/procworker/internal/report"
	"github.com/psantana5/procworker/internal/status"
)

// Process is one spawned slave, as the loop sees it.
type Process interface {
	Signal(sig os.Signal) error
	// Wait blocks until the slave terminates or stops, retrying across
	// interruption, and classifies the outcome.
	Wait() (status.ProcessStatus, error)
}

// SpawnFunc starts a slave for one job. The state preamble and the raw
// request frame payload are handed over verbatim; the slave owns them from
// here.
type SpawnFunc func(state, request []byte) (Process, error)

// Options configures a worker.
type Options struct {
	Requests io.Reader // framed: [state][job][job]...
	Results  *os.File  // inherited by each slave; the worker never writes it

	// Controller is the optional side-channel descriptor for termination
	// records. Nil disables the relay.
	Controller   io.Writer
	RelayTimeout time.Duration

	Log *logging.Logger

	// Spawn overrides how slaves are started. Defaults to re-executing this
	// binary in slave mode.
	Spawn SpawnFunc

	// ForwardSignals are forwarded to the live slave so an external cancel
	// of the worker reaches the job's cancellation handler. Defaults to
	// SIGTERM.
	ForwardSignals []os.Signal
}

// Worker supervises an unbounded sequence of jobs on one long-lived process.
type Worker struct {
	requests io.Reader
	relay    *relay.Relay
	log      *logging.Logger
	spawn    SpawnFunc
	metrics  *report.Metrics

	forwardSignals []os.Signal

	mu      sync.Mutex
	current Process
}

// New builds a worker from opts.
func New(opts Options) *Worker {
	log := opts.Log
	if log == nil {
		log = logging.New(logging.INFO, false)
	}

	spawn := opts.Spawn
	if spawn == nil {
		spawn = execSpawner(opts.Results, log)
	}

	forward := opts.ForwardSignals
	if len(forward) == 0 {
		forward = []os.Signal{syscall.SIGTERM}
	}

	return &Worker{
		requests:       opts.Requests,
		relay:          relay.New(opts.Controller, opts.RelayTimeout, log),
		log:            log,
		spawn:          spawn,
		metrics:        report.Global(),
		forwardSignals: forward,
	}
}

// Run drives the lifecycle loop and returns the worker's own exit code,
// which mirrors the terminal condition so the owning supervisor can wait on
// this process unmodified.
func (w *Worker) Run() int {
	stopForward := w.installForwarding()
	defer stopForward()

	// The restorable state arrives once, before the first job, and is
	// replayed to every slave since a fresh process image holds none of it.
	state, err := frame.Read(w.requests)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return status.CodeSuccess
		}
		w.log.Error("read worker state", map[string]interface{}{"error": err.Error()})
		return status.CodeUncaughtFault
	}

	for {
		request, err := frame.Read(w.requests)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// No further activity on the request channel.
				return status.CodeSuccess
			}
			w.log.Error("read job request", map[string]interface{}{"error": err.Error()})
			return status.CodeUncaughtFault
		}

		st, err := w.runSlave(state, request)
		if err != nil {
			w.log.Error("slave execution failed", map[string]interface{}{"error": err.Error()})
			return status.CodeUncaughtFault
		}

		w.relay.Report(st)

		code, done := w.react(st)
		if done {
			return code
		}
	}
}

// runSlave spawns one slave and blocks until it is classified. A new job is
// never dispatched until the previous slave has fully terminated.
func (w *Worker) runSlave(state, request []byte) (status.ProcessStatus, error) {
	proc, err := w.spawn(state, request)
	if err != nil {
		return status.ProcessStatus{}, fmt.Errorf("spawn slave: %w", err)
	}
	w.metrics.SlavesSpawned.Add(1)

	w.setCurrent(proc)
	st, err := proc.Wait()
	w.setCurrent(nil)

	if err != nil {
		return status.ProcessStatus{}, fmt.Errorf("wait for slave: %w", err)
	}
	return st, nil
}

// react maps a classified slave status to the loop's next move.
func (w *Worker) react(st status.ProcessStatus) (code int, done bool) {
	switch st.Kind {
	case status.KindExited:
		switch st.Code {
		case status.CodeSuccess:
			w.metrics.JobsCompleted.Add(1)
			return 0, false
		case status.CodeNoJob:
			// The slave saw the channel close: graceful shutdown.
			return status.CodeSuccess, true
		default:
			w.metrics.SlaveFaults.Add(1)
			w.log.Error("slave exited abnormally", map[string]interface{}{"code": st.Code})
			return st.Code, true
		}
	case status.KindSignaled:
		w.metrics.SlavesSignaled.Add(1)
		w.log.Error("slave killed by signal", map[string]interface{}{"signal": st.Signal.String()})
		return status.CodeUncaughtFault, true
	case status.KindStopped:
		w.metrics.SlavesStopped.Add(1)
		w.log.Error("slave stopped by signal", map[string]interface{}{"signal": st.Signal.String()})
		return status.CodeStopped, true
	default:
		w.log.Error("unclassifiable slave status", map[string]interface{}{"status": st.String()})
		return status.CodeUncaughtFault, true
	}
}

func (w *Worker) setCurrent(p Process) {
	w.mu.Lock()
	w.current = p
	w.mu.Unlock()
}

// installForwarding relays cancellation signals to the live slave, if any.
func (w *Worker) installForwarding() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, w.forwardSignals...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-ch:
				w.mu.Lock()
				proc := w.current
				w.mu.Unlock()
				if proc != nil {
					if err := proc.Signal(sig); err != nil {
						w.log.Warn("forward signal to slave", map[string]interface{}{
							"signal": sig.String(),
							"error":  err.Error(),
						})
					}
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
