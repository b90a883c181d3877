package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/roshambo/internal/session"
	"github.com/okian/roshambo/pkg/metrics"
)

const defaultJanitorInterval = time.Minute

// MemoryStore is a map-backed Store with optional idle expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	maxSessions     int
	idleTTL         time.Duration
	janitorInterval time.Duration
	onEvict         func(id string)
	now             func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore builds the store and, when idle expiry is on, starts the
// janitor. The janitor stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:        make(map[string]*session.Session),
		janitorInterval: defaultJanitorInterval,
		now:             time.Now,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTTL > 0 {
		s.startJanitor(ctx)
	}
	metrics.UpdateSessionsActive(0)
	return s
}

func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.janitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID()]; ok {
		return ErrExists
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		metrics.RecordErrorByComponent("repository", "capacity")
		return ErrCapacity
	}
	s.sessions[sess.ID()] = sess
	metrics.UpdateSessionsActive(len(s.sessions))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	metrics.UpdateSessionsActive(len(s.sessions))
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns their ids.
// The janitor calls it on every tick.
func (s *MemoryStore) Sweep(_ context.Context) []string {
	if s.idleTTL <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	metrics.UpdateSessionsActive(len(s.sessions))
	s.mu.Unlock()

	for _, id := range expired {
		metrics.RecordSessionEnded("expired")
		if s.onEvict != nil {
			s.onEvict(id)
		}
	}
	return expired
}
