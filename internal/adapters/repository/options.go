package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxSessions caps how many sessions the store holds. 0 means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *MemoryStore) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithIdleTTL evicts sessions with no activity for d. 0 disables eviction.
func WithIdleTTL(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d >= 0 {
			s.idleTTL = d
		}
	}
}

// WithJanitorInterval sets how often idle sessions are swept.
func WithJanitorInterval(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d > 0 {
			s.janitorInterval = d
		}
	}
}

// WithOnEvict registers a callback run with the id of every expired session.
func WithOnEvict(fn func(id string)) Option {
	return func(s *MemoryStore) {
		s.onEvict = fn
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
