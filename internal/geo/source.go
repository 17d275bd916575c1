// Package geo implements the spherical geometry and synthetic layers used by
// the map session: great-circle distance, influence-zone polygons and the
// simulated pedestrian heatmap.
package geo

import (
	"math/rand/v2"
	"sync"
)

// Source is the random number source consumed by the synthetic generators.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
}

// NewSource returns a deterministic PCG-backed source for the given seed.
// The returned source is not safe for concurrent use; wrap it with Locked
// when it is shared between goroutines.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource returns a source backed by the math/rand/v2 global generator.
// It is safe for concurrent use.
func DefaultSource() Source {
	return globalSource{}
}

// LockedSource serializes access to an underlying Source.
type LockedSource struct {
	mu  sync.Mutex
	src Source
}

// Locked wraps src so it can be shared between goroutines.
func Locked(src Source) *LockedSource {
	return &LockedSource{src: src}
}

// Float64 implements Source.
func (l *LockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}
