package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/psantana5/procworker/internal/frame"
	"github.com/psantana5/procworker/internal/logging"
	"github.com/psantana5/procworker/internal/profile"
)

// OversizeWarnBytes is the result-payload size above which the emitter warns.
// A payload this large usually means the job accidentally captured a big
// value; the send still completes.
const OversizeWarnBytes = 30 << 20

var ErrAlreadyEmitted = errors.New("job result already emitted")

// Envelope is the single framed message written to the result channel for a
// completed job. On cancellation a placeholder envelope is written instead
// and the reader discards its content.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Result    json.RawMessage `json:"result,omitempty"`
	Profiling profile.Samples `json:"profiling,omitempty"`
	Cancelled bool            `json:"cancelled,omitempty"`
}

// Emitter is the single-use capability handed to a job body. Whichever of
// Emit or EmitPlaceholder wins the internal latch owns the result channel;
// the loser gets ErrAlreadyEmitted and writes nothing.
type Emitter struct {
	mu    sync.Mutex
	used  bool
	w     io.Writer
	id    uuid.UUID
	scope *profile.Scope
	log   *logging.Logger
}

// NewEmitter binds an emitter to the result channel for one request. The
// profiling scope is closed by Emit, immediately before the frame goes out.
func NewEmitter(w io.Writer, id uuid.UUID, scope *profile.Scope, log *logging.Logger) *Emitter {
	return &Emitter{w: w, id: id, scope: scope, log: log}
}

// Emit marshals v and transmits the (result, profiling) envelope as one
// frame. It may be called once; later calls fail without touching the
// channel.
func (e *Emitter) Emit(v interface{}) error {
	result, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal job result: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.used {
		return ErrAlreadyEmitted
	}

	env := Envelope{ID: e.id, Result: result}
	if e.scope != nil {
		env.Profiling = e.scope.Close()
	}

	size, err := frame.WriteJSON(e.w, env)
	if err != nil {
		return fmt.Errorf("transmit job result: %w", err)
	}
	e.used = true

	if size > OversizeWarnBytes && e.log != nil {
		stack := make([]byte, 16<<10)
		stack = stack[:runtime.Stack(stack, false)]
		e.log.Warn("oversized result payload", map[string]interface{}{
			"job_id":      e.id.String(),
			"bytes":       size,
			"limit_bytes": OversizeWarnBytes,
			"stack":       string(stack),
		})
	}
	return nil
}

// EmitPlaceholder writes the cancellation placeholder envelope, keeping the
// channel framing intact for whichever reader is draining it. It respects
// the same latch as Emit so a late cancellation never double-writes.
func (e *Emitter) EmitPlaceholder() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.used {
		return ErrAlreadyEmitted
	}

	if _, err := frame.WriteJSON(e.w, Envelope{ID: e.id, Cancelled: true}); err != nil {
		return fmt.Errorf("transmit placeholder: %w", err)
	}
	e.used = true
	return nil
}

// Used reports whether a frame has been written through this emitter.
func (e *Emitter) Used() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.used
}
