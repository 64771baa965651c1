// Package slave executes exactly one job end-to-end in a disposable process
// and terminates with a classified exit code. This is both the child path of
// the worker lifecycle loop and the uniform fallback for hosts where the
// supervisor spawns a fresh process per job itself.
//
// The protocol on the request channel is two frames: the opaque restorable
// worker state (possibly empty), then one job request. The result channel
// receives exactly one envelope frame, or one placeholder on cancellation.
package slave

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"syscall"

	"github.com/psantana5/procworker/internal/cancel"
	"github.com/psantana5/procworker/internal/frame"
	"github.com/psantana5/procworker/internal/job"
	"github.com/psantana5/procworker/internal/logging"
	"github.com/psantana5/procworker/internal/profile"
	"github.com/psantana5/procworker/internal/status"
	"github.com/psantana5/procworker/internal/storefault"
)

// Options configures one slave run.
type Options struct {
	Requests io.Reader // framed channel: [state][job request]
	Results  io.Writer // framed channel: one envelope
	Registry *job.Registry
	Log      *logging.Logger

	// Restore applies the worker-state blob before the job runs. Optional;
	// a nil hook ignores the blob.
	Restore func(state []byte) error

	// CancelSignals override the signals that trigger the cancellation
	// handler. Defaults to SIGTERM.
	CancelSignals []os.Signal
}

// Run executes one job and returns the process exit code. It never returns
// before either writing exactly one result frame or deciding no frame must
// be written.
func Run(opts Options) int {
	log := opts.Log
	if log == nil {
		log = logging.New(logging.INFO, false)
	}
	registry := opts.Registry
	if registry == nil {
		registry = job.Default()
	}

	// State preamble. A channel that closes before the preamble carries the
	// same meaning as one that closes before a job: expected shutdown.
	state, err := frame.Read(opts.Requests)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return status.CodeNoJob
		}
		return fault(log, fmt.Errorf("read worker state: %w", err))
	}
	if len(state) > 0 && opts.Restore != nil {
		if err := opts.Restore(state); err != nil {
			return fault(log, fmt.Errorf("restore worker state: %w", err))
		}
	}

	var req job.Request
	if err := frame.ReadJSON(opts.Requests, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return status.CodeNoJob
		}
		return fault(log, fmt.Errorf("read job request: %w", err))
	}

	fn, ok := registry.Lookup(req.Name)
	if !ok {
		return fault(log, fmt.Errorf("job %q not registered", req.Name))
	}

	scope := profile.Begin()
	emitter := job.NewEmitter(opts.Results, req.ID, scope, log)

	// The handler must be live before the job body starts so a cancellation
	// racing the first instruction still leaves a whole frame behind.
	handler := cancel.New()
	handler.Arm(emitter)
	sigs := opts.CancelSignals
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGTERM}
	}
	stop := handler.Notify(sigs...)
	defer stop()

	err = runJob(fn, req.Payload, emitter)
	handler.Disarm()

	if err != nil {
		if c, ok := storefault.CategoryOf(err); ok {
			log.Error("backing store fault", map[string]interface{}{
				"job_id":   req.ID.String(),
				"category": c.String(),
				"error":    err.Error(),
			})
			return c.ExitCode()
		}
		return fault(log, fmt.Errorf("job %q: %w", req.Name, err))
	}

	if !emitter.Used() {
		return fault(log, fmt.Errorf("job %q returned without emitting a result", req.Name))
	}
	return status.CodeSuccess
}

// runJob runs the body with panic containment: a panicking job is an
// uncaught fault, not a crashed slave with a half-written frame.
func runJob(fn job.Func, payload []byte, emitter *job.Emitter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 32<<10)
			stack = stack[:runtime.Stack(stack, false)]
			err = fmt.Errorf("job panicked: %v\n%s", r, stack)
		}
	}()
	return fn(payload, emitter)
}

func fault(log *logging.Logger, err error) int {
	log.Error("uncaught fault", map[string]interface{}{"error": err.Error()})
	return status.CodeUncaughtFault
}
