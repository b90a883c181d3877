// Package random produces the computer's move.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"

	"github.com/okian/roshambo/internal/domain/move"
)

// MoveSource yields moves for the computer player.
type MoveSource interface {
	Next() move.Move
}

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithSeed makes the sequence reproducible. A zero seed keeps the
// entropy-derived default.
func WithSeed(seed int64) Option {
	return func(s *Source) {
		if seed != 0 {
			s.seed = seed
		}
	}
}

// Source draws moves uniformly from move.All. It is not cryptographically
// secure. Safe for concurrent use.
type Source struct {
	mu    sync.Mutex
	rng   *rand.Rand
	seed  int64
	moves []move.Move
}

// NewSource creates a move source. Without WithSeed the generator is
// seeded from crypto/rand.
func NewSource(opts ...Option) *Source {
	s := &Source{moves: move.All()}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed == 0 {
		seed, err := NewSeed()
		if err != nil {
			// crypto/rand only fails on broken platforms; a fixed
			// non-zero seed still yields a usable game.
			seed = 1
		}
		s.seed = seed
	}
	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // game moves need no cryptographic randomness
	return s
}

// Next returns a move picked uniformly at random, independent of prior calls.
func (s *Source) Next() move.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves[s.rng.Intn(len(s.moves))]
}

// Seed returns the seed the generator was started with.
func (s *Source) Seed() int64 { return s.seed }

// NewSeed generates a non-zero seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

// Fixed is a MoveSource that replays a script of moves, cycling when
// exhausted. It is meant for tests and deterministic tooling.
type Fixed struct {
	mu     sync.Mutex
	script []move.Move
	next   int
}

// NewFixed returns a source that yields script in order. An empty script
// always yields Rock.
func NewFixed(script ...move.Move) *Fixed {
	return &Fixed{script: script}
}

// Next returns the next scripted move.
func (f *Fixed) Next() move.Move {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.script) == 0 {
		return move.Rock
	}
	m := f.script[f.next%len(f.script)]
	f.next++
	return m
}
