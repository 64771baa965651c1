// Package status models how a slave process terminated. The same status is
// threaded through all three levels: the slave's own exit code, the worker
// loop's reaction, and the controller side-channel record.
package status

import (
	"fmt"
	"syscall"
)

// Generic exit codes shared between slave and worker. Codes 0 and 1 are
// expected outcomes and are never relayed to the controller; everything else
// is abnormal. Reserved backing-store codes live in internal/storefault.
const (
	CodeSuccess       = 0 // job completed normally
	CodeNoJob         = 1 // request channel closed before a job was read
	CodeUncaughtFault = 2 // uncaught fault, or slave was signaled
	CodeStopped       = 3 // slave was stopped by a job-control signal
)

// Kind discriminates the ProcessStatus variants.
type Kind string

const (
	KindExited   Kind = "exited"
	KindSignaled Kind = "signaled"
	KindStopped  Kind = "stopped"
)

// ProcessStatus is the classified termination state of a slave process.
type ProcessStatus struct {
	Kind   Kind           `json:"kind"`
	Code   int            `json:"code,omitempty"`
	Signal syscall.Signal `json:"signal,omitempty"`
}

func Exited(code int) ProcessStatus {
	return ProcessStatus{Kind: KindExited, Code: code}
}

func Signaled(sig syscall.Signal) ProcessStatus {
	return ProcessStatus{Kind: KindSignaled, Signal: sig}
}

func Stopped(sig syscall.Signal) ProcessStatus {
	return ProcessStatus{Kind: KindStopped, Signal: sig}
}

// Expected reports whether the status is one of the two outcomes the worker
// loop treats as normal: a completed job or a clean channel shutdown.
func (s ProcessStatus) Expected() bool {
	return s.Kind == KindExited && (s.Code == CodeSuccess || s.Code == CodeNoJob)
}

func (s ProcessStatus) String() string {
	switch s.Kind {
	case KindExited:
		return fmt.Sprintf("exited(%d)", s.Code)
	case KindSignaled:
		return fmt.Sprintf("signaled(%s)", s.Signal)
	case KindStopped:
		return fmt.Sprintf("stopped(%s)", s.Signal)
	default:
		return fmt.Sprintf("unknown(%q)", string(s.Kind))
	}
}
