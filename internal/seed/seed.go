// Package seed derives deterministic random streams from explicit seed
// pairs. Nothing in the module reads a process-wide random source: every
// draw comes from a *rand.Rand built here.
package seed

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultGlobal is the global seed used when none is configured.
const DefaultGlobal int64 = 12345

// Pair combines a graph-level (global) seed with an operation seed.
// Equal pairs always produce identical streams.
type Pair struct {
	Global int64 `json:"global" yaml:"global"`
	Op     int64 `json:"op" yaml:"op"`
}

// String formats the pair as "global/op".
func (p Pair) String() string {
	return fmt.Sprintf("%d/%d", p.Global, p.Op)
}

// Rand returns a new stream for p.
func (p Pair) Rand() *rand.Rand {
	//nolint:gosec // G404: reproducible sampling, not security
	return rand.New(rand.NewSource(int64(mix(p.Global, p.Op))))
}

// Derive returns a child pair for a named consumer, so independent
// components seeded from one pair do not share draws.
func (p Pair) Derive(name string) Pair {
	h := uint64(p.Op)
	for _, c := range []byte(name) {
		h = splitmix64(h ^ uint64(c))
	}
	return Pair{Global: p.Global, Op: int64(h >> 1)}
}

// mix folds both seeds through splitmix64.
func mix(global, op int64) uint64 {
	return splitmix64(splitmix64(uint64(global)) ^ uint64(op))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Stream is a mutex-guarded random stream shared by concurrent callers.
// Each Use call sees the stream state left by the previous one.
type Stream struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStream creates a stream seeded from p.
func NewStream(p Pair) *Stream {
	return &Stream{rng: p.Rand()}
}

// Use runs fn with exclusive access to the stream.
func (s *Stream) Use(fn func(rng *rand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rng)
}

var freshCount atomic.Int64

// Fresh returns a clock-derived pair for calls made without an explicit
// seed. Successive calls never return the same pair.
func Fresh() Pair {
	return Pair{Global: time.Now().UnixNano(), Op: freshCount.Add(1)}
}
