package worker

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/procworker/internal/frame"
	"github.com/psantana5/procworker/internal/job"
	"github.com/psantana5/procworker/internal/logging"
	"github.com/psantana5/procworker/internal/relay"
	"github.com/psantana5/procworker/internal/status"
)

func quietLogger() *logging.Logger {
	log := logging.New(logging.ERROR, false)
	log.SetOutput(io.Discard)
	return log
}

// scriptedSpawner hands back one canned status per spawned slave, recording
// what the loop fed it.
type scriptedSpawner struct {
	statuses []status.ProcessStatus
	states   [][]byte
	requests [][]byte
}

type scriptedProcess struct {
	st status.ProcessStatus
}

func (p *scriptedProcess) Signal(os.Signal) error { return nil }

func (p *scriptedProcess) Wait() (status.ProcessStatus, error) {
	return p.st, nil
}

func (s *scriptedSpawner) spawn(state, request []byte) (Process, error) {
	i := len(s.requests)
	if i >= len(s.statuses) {
		return nil, fmt.Errorf("unexpected spawn %d: only %d statuses scripted", i, len(s.statuses))
	}
	s.states = append(s.states, state)
	s.requests = append(s.requests, request)
	return &scriptedProcess{st: s.statuses[i]}, nil
}

func requestChannel(t *testing.T, state []byte, jobs int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, frame.Write(&buf, state))
	for i := 0; i < jobs; i++ {
		req, err := job.NewRequest("echo", i)
		require.NoError(t, err)
		_, err = frame.WriteJSON(&buf, req)
		require.NoError(t, err)
	}
	return &buf
}

func newTestWorker(t *testing.T, requests io.Reader, controller io.Writer, statuses ...status.ProcessStatus) (*Worker, *scriptedSpawner) {
	t.Helper()
	sp := &scriptedSpawner{statuses: statuses}
	w := New(Options{
		Requests:   requests,
		Controller: controller,
		Log:        quietLogger(),
		Spawn:      sp.spawn,
	})
	return w, sp
}

func TestLoopRunsEveryJobThenExitsZero(t *testing.T) {
	w, sp := newTestWorker(t, requestChannel(t, []byte("state"), 3), nil,
		status.Exited(0), status.Exited(0), status.Exited(0))

	assert.Equal(t, 0, w.Run())
	assert.Len(t, sp.requests, 3, "one slave per job")
	for _, st := range sp.states {
		assert.Equal(t, []byte("state"), st, "state replayed to every slave")
	}
}

func TestChannelClosureBeforeStateExitsZero(t *testing.T) {
	w, sp := newTestWorker(t, bytes.NewReader(nil), nil)
	assert.Equal(t, 0, w.Run())
	assert.Empty(t, sp.requests)
}

func TestSlaveExitOneMeansGracefulShutdown(t *testing.T) {
	w, sp := newTestWorker(t, requestChannel(t, nil, 2), nil, status.Exited(1))

	assert.Equal(t, 0, w.Run(), "exit 1 from the slave is not propagated")
	assert.Len(t, sp.requests, 1, "no further job is dispatched")
}

func TestReservedFaultCodePropagates(t *testing.T) {
	w, sp := newTestWorker(t, requestChannel(t, nil, 3), nil, status.Exited(14))

	assert.Equal(t, 14, w.Run())
	assert.Len(t, sp.requests, 1)
}

func TestSignaledSlaveExitsTwo(t *testing.T) {
	w, _ := newTestWorker(t, requestChannel(t, nil, 1), nil, status.Signaled(syscall.SIGKILL))
	assert.Equal(t, status.CodeUncaughtFault, w.Run())
}

func TestStoppedSlaveExitsThree(t *testing.T) {
	w, _ := newTestWorker(t, requestChannel(t, nil, 1), nil, status.Stopped(syscall.SIGSTOP))
	assert.Equal(t, status.CodeStopped, w.Run())
}

func TestAbnormalTerminationIsRelayed(t *testing.T) {
	var controller bytes.Buffer
	w, _ := newTestWorker(t, requestChannel(t, nil, 1), &controller, status.Exited(14))

	assert.Equal(t, 14, w.Run())

	var msg relay.Message
	require.NoError(t, frame.ReadJSON(&controller, &msg))
	assert.Equal(t, relay.TypeSlaveTerminated, msg.Type)
	assert.Equal(t, status.Exited(14), msg.Status)
}

func TestNormalTerminationIsNotRelayed(t *testing.T) {
	var controller bytes.Buffer
	w, _ := newTestWorker(t, requestChannel(t, nil, 2), &controller,
		status.Exited(0), status.Exited(1))

	assert.Equal(t, 0, w.Run())
	assert.Zero(t, controller.Len(), "codes 0 and 1 are expected, not reported")
}
