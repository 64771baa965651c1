//go:build unix

package worker

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/psantana5/procworker/internal/status"
)

// Wait reaps the slave with wait4(2), retrying across EINTR. WUNTRACED is
// set so a slave stopped by a job-control signal is observed and classified
// rather than waited through.
func (p *slaveProcess) Wait() (status.ProcessStatus, error) {
	pid := p.cmd.Process.Pid
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return status.ProcessStatus{}, fmt.Errorf("wait4 pid %d: %w", pid, err)
		}
		if wpid == pid {
			return status.FromWaitStatus(ws), nil
		}
	}
}
