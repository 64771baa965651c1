package relay

import (
	"bytes"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/procworker/internal/frame"
	"github.com/psantana5/procworker/internal/logging"
	"github.com/psantana5/procworker/internal/report"
	"github.com/psantana5/procworker/internal/status"
)

func quietLogger() *logging.Logger {
	log := logging.New(logging.ERROR, false)
	log.SetOutput(io.Discard)
	return log
}

func TestNilRelayDropsEverything(t *testing.T) {
	r := New(nil, time.Second, quietLogger())
	require.Nil(t, r)
	r.Report(status.Exited(14)) // must not panic
}

func TestExpectedStatusesAreNotRelayed(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, time.Second, quietLogger())

	r.Report(status.Exited(0))
	r.Report(status.Exited(1))
	assert.Zero(t, buf.Len())
}

func TestAbnormalStatusIsRelayed(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, time.Second, quietLogger())

	r.Report(status.Exited(14))

	var msg Message
	require.NoError(t, frame.ReadJSON(&buf, &msg))
	assert.Equal(t, TypeSlaveTerminated, msg.Type)
	assert.Equal(t, status.Exited(14), msg.Status)

	_, err := frame.Read(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSignaledStatusIsRelayed(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, time.Second, quietLogger())

	r.Report(status.Signaled(syscall.SIGKILL))

	var msg Message
	require.NoError(t, frame.ReadJSON(&buf, &msg))
	assert.Equal(t, status.Signaled(syscall.SIGKILL), msg.Status)
}

// blockingWriter never completes a write, standing in for a controller that
// stopped draining its side channel.
type blockingWriter struct {
	unblock chan struct{}
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.unblock
	return len(p), nil
}

func TestTimeoutIsLoggedAndAbandoned(t *testing.T) {
	w := &blockingWriter{unblock: make(chan struct{})}
	defer close(w.unblock)

	var logs bytes.Buffer
	log := logging.New(logging.WARN, false)
	log.SetOutput(&logs)

	before := report.Global().RelayTimeouts.Load()
	r := New(w, 50*time.Millisecond, log)

	start := time.Now()
	r.Report(status.Exited(14))

	assert.Less(t, time.Since(start), time.Second, "Report must not block past its timeout")
	assert.Contains(t, logs.String(), "controller relay timed out")
	assert.Equal(t, before+1, report.Global().RelayTimeouts.Load())
}
