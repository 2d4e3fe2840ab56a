// Package keygen hands out human-readable sheet keys such as "serene-galaxy-42".
package keygen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// ErrExhausted is returned when every key slot is in use.
var ErrExhausted = errors.New("all sheet keys are in use")

var (
	adjectives = [...]string{"radiant", "mysterious", "vibrant", "serene", "whimsical", "tenacious", "luminous", "eccentric", "dynamic", "tranquil"}
	nouns      = [...]string{"phoenix", "galaxy", "cascade", "enigma", "horizon", "odyssey", "echo", "labyrinth", "mirage", "summit"}
)

// suffixes is the size of the numeric suffix range, 0 to 98.
const suffixes = 99

// DefaultCapacity bounds the number of live keys.
const DefaultCapacity = len(adjectives) * len(nouns) * 10

// Allocator issues unique keys until released. Safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	live     map[string]struct{}
	capacity int
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithRand sets the random source. Useful for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(a *Allocator) {
		if r != nil {
			a.rng = r
		}
	}
}

// WithCapacity lowers or raises the live key limit. It is clamped to the key space.
func WithCapacity(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.capacity = min(n, space())
		}
	}
}

// New creates an allocator.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		live:     make(map[string]struct{}),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a key that is not currently live.
func (a *Allocator) Allocate() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.live) >= a.capacity {
		return "", fmt.Errorf("%w (%d live)", ErrExhausted, len(a.live))
	}

	n := space()
	start := a.rng.IntN(n)
	for i := 0; i < n; i++ {
		key := keyAt((start + i) % n)
		if _, taken := a.live[key]; !taken {
			a.live[key] = struct{}{}
			return key, nil
		}
	}
	return "", ErrExhausted
}

// Release frees key for reuse. Releasing an unknown key is a no-op.
func (a *Allocator) Release(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, key)
}

// InUse returns the number of live keys.
func (a *Allocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

func space() int { return len(adjectives) * len(nouns) * suffixes }

func keyAt(i int) string {
	suffix := i % suffixes
	i /= suffixes
	noun := nouns[i%len(nouns)]
	adj := adjectives[i/len(nouns)]
	return fmt.Sprintf("%s-%s-%d", adj, noun, suffix)
}
