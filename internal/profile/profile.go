// Package profile wraps a job execution with a resource-usage measurement
// scope. A scope is opened at slave start and closed exactly once, right
// before the result is transmitted; the samples are always deltas between the
// two snapshots, clamped non-negative.
package profile

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// Sample names. CPU times are seconds; word counts are 8-byte words so the
// numbers stay comparable across collector implementations.
const (
	SampleUserTime         = "worker_user_time"
	SampleSystemTime       = "worker_system_time"
	SampleMinorWords       = "minor_words"
	SamplePromotedWords    = "promoted_words"
	SampleMajorWords       = "major_words"
	SampleMinorCollections = "minor_collections"
	SampleMajorCollections = "major_collections"
)

const wordSize = 8

// Samples maps counter names to measured deltas for one job.
type Samples map[string]float64

// Names lists the seven counters every scope reports.
func Names() []string {
	return []string{
		SampleUserTime, SampleSystemTime,
		SampleMinorWords, SamplePromotedWords, SampleMajorWords,
		SampleMinorCollections, SampleMajorCollections,
	}
}

type snapshot struct {
	userTime   float64
	systemTime float64
	totalAlloc uint64
	heapAlloc  uint64
	heapSys    uint64
	numGC      uint32
	numForced  uint32
}

// Scope is one measurement window around a job body.
type Scope struct {
	proc    *process.Process
	start   snapshot
	closed  bool
	samples Samples
}

// Begin opens a scope with a snapshot of the current process counters.
func Begin() *Scope {
	s := &Scope{}
	// Best effort: if the process handle cannot be obtained the CPU samples
	// degrade to zero rather than failing the job.
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	s.start = s.snapshot()
	return s
}

func (s *Scope) snapshot() snapshot {
	var snap snapshot
	if s.proc != nil {
		if times, err := s.proc.Times(); err == nil {
			snap.userTime = times.User
			snap.systemTime = times.System
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap.totalAlloc = ms.TotalAlloc
	snap.heapAlloc = ms.HeapAlloc
	snap.heapSys = ms.HeapSys
	snap.numGC = ms.NumGC
	snap.numForced = ms.NumForcedGC
	return snap
}

// Close serializes the scope into samples. Closing twice returns the samples
// recorded by the first close; the measurement window never reopens.
func (s *Scope) Close() Samples {
	if s.closed {
		return s.samples
	}
	s.closed = true

	end := s.snapshot()
	s.samples = Samples{
		SampleUserTime:         clampF(end.userTime - s.start.userTime),
		SampleSystemTime:       clampF(end.systemTime - s.start.systemTime),
		SampleMinorWords:       wordsDelta(end.totalAlloc, s.start.totalAlloc),
		SamplePromotedWords:    wordsDelta(end.heapAlloc, s.start.heapAlloc),
		SampleMajorWords:       wordsDelta(end.heapSys, s.start.heapSys),
		SampleMinorCollections: clampF(float64(end.numGC) - float64(s.start.numGC)),
		SampleMajorCollections: clampF(float64(end.numForced) - float64(s.start.numForced)),
	}
	return s.samples
}

// wordsDelta converts a byte-counter delta to words, treating wraparound as
// zero activity so a bad counter can never corrupt the output frame.
func wordsDelta(end, start uint64) float64 {
	if end < start {
		return 0
	}
	return float64((end - start) / wordSize)
}

func clampF(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
