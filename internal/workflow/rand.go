package workflow

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness source behind the simulated LLM relevance
// judgment. Implementations must be safe for use by concurrent runs.
type Rand interface {
	Float64() float64
}

// lockedRand serializes access to a math/rand source so independent
// pipeline runs can share one Runner.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewSeededRand returns a deterministic source for the given seed.
func NewSeededRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRand returns a source seeded from the clock.
func NewTimeSeededRand() Rand {
	return NewSeededRand(time.Now().UnixNano())
}
