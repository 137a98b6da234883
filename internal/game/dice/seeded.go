package dice

import (
	"math/rand"
	"sync"
)

// seededSource implements Source with a seeded math/rand generator, guarded
// by a mutex. Used by cmd/simulate for reproducible balance runs; never use
// it for live play.
type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource returns a Source producing the deterministic stream for seed.
//
// Postcondition: Two sources built from the same seed return identical
// Intn sequences.
func NewSeededSource(seed int64) Source {
	return &seededSource{r: rand.New(rand.NewSource(seed))}
}

// Intn returns the next value of the seeded stream in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}
