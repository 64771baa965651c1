package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeReportsAllSamples(t *testing.T) {
	scope := Begin()
	// A little allocator activity inside the window.
	sink := make([][]byte, 0, 64)
	for i := 0; i < 64; i++ {
		sink = append(sink, make([]byte, 1024))
	}
	_ = sink

	samples := scope.Close()
	require.Len(t, samples, len(Names()))
	for _, name := range Names() {
		v, ok := samples[name]
		require.True(t, ok, "missing sample %q", name)
		assert.GreaterOrEqual(t, v, 0.0, "sample %q must be non-negative", name)
	}
}

func TestScopeCloseIsIdempotent(t *testing.T) {
	scope := Begin()
	first := scope.Close()
	second := scope.Close()
	assert.Equal(t, first, second)
}

func TestWordsDeltaWraparound(t *testing.T) {
	// A counter running backwards must read as zero activity, never as a
	// huge unsigned delta.
	assert.Equal(t, 0.0, wordsDelta(10, 20))
	assert.Equal(t, 2.0, wordsDelta(26, 10))
}
