// Package cancel lets an external canceller interrupt an in-flight job
// without corrupting the result-channel framing. The handler writes one
// correctly framed placeholder and nothing else; once the job completes
// normally the handler is downgraded to a no-op.
package cancel

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// PlaceholderWriter is the piece of the emitter the handler needs: a way to
// put one discardable frame on the result channel.
type PlaceholderWriter interface {
	EmitPlaceholder() error
}

type state int

const (
	stateIdle state = iota
	stateArmed
	stateFired
	stateDisarmed
)

// Handler is the per-slave cancellation hook.
type Handler struct {
	mu     sync.Mutex
	state  state
	target PlaceholderWriter
}

func New() *Handler {
	return &Handler{}
}

// Arm installs the handler before the job body starts.
func (h *Handler) Arm(target PlaceholderWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = stateArmed
	h.target = target
}

// Disarm downgrades the handler once the job has completed; a cancellation
// arriving after this point must not write a second frame.
func (h *Handler) Disarm() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = stateDisarmed
	h.target = nil
}

// Invoke runs the handler. Only the first invocation of an armed handler
// writes the placeholder; every other call is a no-op.
func (h *Handler) Invoke() error {
	h.mu.Lock()
	if h.state != stateArmed {
		h.mu.Unlock()
		return nil
	}
	h.state = stateFired
	target := h.target
	h.mu.Unlock()

	return target.EmitPlaceholder()
}

// Notify wires the handler to OS signals (SIGTERM by default, the signal the
// canceller sends) and returns a stop function that releases the wiring.
func (h *Handler) Notify(sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGTERM}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				// The canceller owns what happens next; the handler only
				// keeps the channel framing whole.
				_ = h.Invoke()
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
