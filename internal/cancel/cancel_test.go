package cancel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWriter struct {
	calls atomic.Int32
	err   error
}

func (w *countingWriter) EmitPlaceholder() error {
	w.calls.Add(1)
	return w.err
}

func TestInvokeBeforeArmIsNoop(t *testing.T) {
	h := New()
	require.NoError(t, h.Invoke())
}

func TestArmedInvokeWritesOnce(t *testing.T) {
	h := New()
	w := &countingWriter{}
	h.Arm(w)

	require.NoError(t, h.Invoke())
	require.NoError(t, h.Invoke(), "second invocation is a no-op")
	assert.Equal(t, int32(1), w.calls.Load())
}

func TestDisarmDowngradesToNoop(t *testing.T) {
	h := New()
	w := &countingWriter{}
	h.Arm(w)
	h.Disarm()

	require.NoError(t, h.Invoke())
	assert.Zero(t, w.calls.Load(), "a cancellation after completion must not write a frame")
}

func TestInvokePropagatesWriteError(t *testing.T) {
	h := New()
	w := &countingWriter{err: errors.New("pipe gone")}
	h.Arm(w)

	assert.Error(t, h.Invoke())
}
