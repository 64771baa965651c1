package worker

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/psantana5/procworker/internal/frame"
	"github.com/psantana5/procworker/internal/logging"
)

// slaveArg is the subcommand the worker re-executes itself with. Go cannot
// fork, so "spawn a child that becomes the slave executor" means a fresh
// process image of the same binary with the state replayed over its stdin.
const slaveArg = "slave"

// execSpawner returns the default spawner: re-exec this binary in slave
// mode, with the job frames piped to its stdin and the result channel
// descriptor inherited directly so result frames bypass the worker entirely.
func execSpawner(results *os.File, log *logging.Logger) SpawnFunc {
	return func(state, request []byte) (Process, error) {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}

		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("request pipe: %w", err)
		}

		out := results
		if out == nil {
			out = os.Stdout
		}

		cmd := exec.Command(exe, slaveArg)
		cmd.Stdin = pr
		cmd.Stdout = out
		cmd.Stderr = os.Stderr

		if err := cmd.Start(); err != nil {
			pr.Close()
			pw.Close()
			return nil, fmt.Errorf("start slave: %w", err)
		}
		pr.Close()

		// Feed the slave asynchronously: a request larger than the pipe
		// buffer must not deadlock against our own wait. A slave that dies
		// before reading produces a pipe error here, and the exit status is
		// the authoritative signal, so the error is only logged.
		go func() {
			defer pw.Close()
			if err := frame.Write(pw, state); err != nil {
				log.Debug("write state to slave", map[string]interface{}{"error": err.Error()})
				return
			}
			if err := frame.Write(pw, request); err != nil {
				log.Debug("write request to slave", map[string]interface{}{"error": err.Error()})
			}
		}()

		return &slaveProcess{cmd: cmd}, nil
	}
}

// slaveProcess wraps one spawned slave.
type slaveProcess struct {
	cmd *exec.Cmd
}

func (p *slaveProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}
