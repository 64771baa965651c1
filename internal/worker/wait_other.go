//go:build !unix

package worker

import (
	"errors"
	"os/exec"

	"github.com/psantana5/procworker/internal/status"
)

// Wait reaps the slave on hosts without wait4 semantics. Only the numeric
// exit code survives here; signal and stop detail is a unix concept.
func (p *slaveProcess) Wait() (status.ProcessStatus, error) {
	err := p.cmd.Wait()
	if err == nil {
		return status.Exited(0), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return status.Exited(exitErr.ExitCode()), nil
	}
	return status.ProcessStatus{}, err
}
