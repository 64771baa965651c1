//go:build unix

package status

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// FromWaitStatus classifies a raw wait(2) status. Stops are only observable
// when the waiter passed WUNTRACED.
func FromWaitStatus(ws unix.WaitStatus) ProcessStatus {
	switch {
	case ws.Exited():
		return Exited(ws.ExitStatus())
	case ws.Signaled():
		return Signaled(syscall.Signal(ws.Signal()))
	case ws.Stopped():
		return Stopped(syscall.Signal(ws.StopSignal()))
	default:
		// Continued or otherwise unclassifiable; fold into a signaled-shaped
		// abnormal status so the worker loop still reacts.
		return Signaled(syscall.Signal(0))
	}
}
