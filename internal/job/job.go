// Package job defines the unit of work a slave process executes: a framed
// request naming a registered job function, and the single-use emitter the
// function must call exactly once to transmit its result.
//
// Closures do not survive exec, so a request carries a registry name plus an
// opaque payload instead of a callback value.
package job

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Request is one framed job message on the request channel. It is consumed
// exactly once per slave process.
type Request struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewRequest builds a request for a registered job name with a JSON payload.
func NewRequest(name string, payload interface{}) (*Request, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal job payload: %w", err)
		}
		raw = b
	}
	return &Request{ID: uuid.New(), Name: name, Payload: raw}, nil
}

// Func is a job body. It must call emit exactly once, as its final act.
// The runtime enforces the "exactly once" half at runtime: a second Emit
// fails, and returning without emitting is treated as an uncaught fault.
type Func func(payload json.RawMessage, emit *Emitter) error

// Registry maps job names to functions. Both the spawning side and the slave
// binary must register the same names.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Func)}
}

// Register adds a job function under name.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("job name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("job %q: nil function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.m[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	r.m[name] = fn
	return nil
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.m[name]
	return fn, ok
}

// Names returns the registered job names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry the slave command executes from.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a job function to the default registry.
func Register(name string, fn Func) error {
	return defaultRegistry.Register(name, fn)
}
