package cmd

import (
	"encoding/json"

	"github.com/psantana5/procworker/internal/job"
)

// Builtin jobs available in every procworker binary. Embedding programs
// register their own job functions against job.Default() before Execute.
func init() {
	// echo sends the payload straight back; used to smoke-test a worker
	// pipeline end to end.
	_ = job.Register("echo", func(payload json.RawMessage, emit *job.Emitter) error {
		var v interface{}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &v); err != nil {
				return err
			}
		}
		return emit.Emit(v)
	})
}
