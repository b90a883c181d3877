// Package service provides the game service behind the HTTP API: it owns
// the session store, round deduplication and the asynchronous tally.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	eventqueue "github.com/okian/roshambo/internal/adapters/mq/queue"
	workerpool "github.com/okian/roshambo/internal/adapters/mq/worker"
	repository "github.com/okian/roshambo/internal/adapters/repository"
	"github.com/okian/roshambo/internal/domain/dedupe"
	"github.com/okian/roshambo/internal/domain/model"
	"github.com/okian/roshambo/internal/domain/move"
	"github.com/okian/roshambo/internal/domain/random"
	"github.com/okian/roshambo/internal/domain/score"
	"github.com/okian/roshambo/internal/domain/tally"
	"github.com/okian/roshambo/internal/session"
	"github.com/okian/roshambo/pkg/logger"
	"github.com/okian/roshambo/pkg/metrics"
)

// MaxPlayerNameLen bounds display names, in characters.
const MaxPlayerNameLen = 32

const stopTimeout = 10 * time.Second

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID         string           `json:"id"`
	Player     string           `json:"player"`
	Opponent   string           `json:"opponent"`
	Scoreboard score.Scoreboard `json:"scoreboard"`
	Last       *session.Outcome `json:"last,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	LastActive time.Time        `json:"last_active"`
}

// PlayResult is the reply to a round submission. Outcome is nil when the
// round id was already played; Scoreboard is always current.
type PlayResult struct {
	SessionID  string           `json:"session_id"`
	RoundID    string           `json:"round_id,omitempty"`
	Duplicate  bool             `json:"duplicate"`
	Outcome    *session.Outcome `json:"outcome,omitempty"`
	Scoreboard score.Scoreboard `json:"scoreboard"`
}

// Service implements the API dependencies for the game.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions   *repository.MemoryStore
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	tally      *tally.Tally

	// Configuration
	maxSessions     int
	idleTTL         time.Duration
	janitorInterval time.Duration
	workerCount     int
	queueSize       int
	dedupeSize      int
	seed            int64
	defaultPlayer   string
	newID           func() string

	// State
	started bool
	created atomic.Int64
	ended   atomic.Int64
	dropped atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of tally workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the round event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many round ids are remembered. 0 means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxSessions caps live sessions. 0 means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithIdleTTL sets how long an untouched session lives, and how often the
// janitor looks for them. A zero ttl keeps sessions until they are ended.
func WithIdleTTL(ttl, janitorInterval time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.idleTTL = ttl
		}
		if janitorInterval > 0 {
			s.janitorInterval = janitorInterval
		}
	}
}

// WithSeed makes every session's computer play a reproducible sequence.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithDefaultPlayer sets the display name used when none is given.
func WithDefaultPlayer(name string) Option {
	return func(s *Service) {
		if name = strings.TrimSpace(name); name != "" {
			s.defaultPlayer = name
		}
	}
}

// WithIDGenerator overrides uuid session ids, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxSessions:     10_000,
		idleTTL:         30 * time.Minute,
		janitorInterval: time.Minute,
		workerCount:     runtime.NumCPU(),
		queueSize:       10_000,
		dedupeSize:      100_000,
		defaultPlayer:   session.DefaultPlayerName,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components. The janitor and
// workers run until Stop or until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.logger.Info(ctx, "starting game service...")

	deduper := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.deduper = deduper
	s.sessions = repository.NewMemoryStore(ctx,
		repository.WithMaxSessions(s.maxSessions),
		repository.WithIdleTTL(s.idleTTL),
		repository.WithJanitorInterval(s.janitorInterval),
		repository.WithOnEvict(func(id string) { s.onEvict(deduper, id) }),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.tally = tally.New()
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.tally)
	// Workers outlive ctx so rounds queued during shutdown are still tallied; Stop ends them.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "game service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("maxSessions", s.maxSessions),
		logger.Duration("idleTTL", s.idleTTL),
		logger.Bool("seeded", s.seed != 0),
	)
	return nil
}

// Stop gracefully shuts down the service. Queued round events are
// tallied before it returns.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping game service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.sessions.Close()

	s.started = false
	s.logger.Info(ctx, "game service stopped",
		logger.Int64("sessionsCreated", s.created.Load()),
		logger.Int64("sessionsEnded", s.ended.Load()),
	)
}

// components returns the live store and deduper, or ErrNotStarted.
func (s *Service) components() (*repository.MemoryStore, dedupe.Deduper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.sessions, s.deduper, nil
}

// CreateSession starts a game at (0, 0) for player.
func (s *Service) CreateSession(ctx context.Context, player string) (Snapshot, error) {
	store, _, err := s.components()
	if err != nil {
		return Snapshot{}, err
	}

	name := strings.TrimSpace(player)
	if name == "" {
		name = s.defaultPlayer
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLen {
		return Snapshot{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidPlayer, MaxPlayerNameLen)
	}

	opts := []session.Option{session.WithPlayerName(name)}
	if s.seed != 0 {
		opts = append(opts, session.WithMoveSource(random.NewSource(random.WithSeed(s.seed))))
	}
	sess := session.New(s.newID(), opts...)

	if err := store.Create(ctx, sess); err != nil {
		s.logger.Warn(ctx, "session not created", logger.Error(err))
		return Snapshot{}, fmt.Errorf("create session: %w", err)
	}

	s.created.Add(1)
	metrics.RecordSessionCreated()
	s.logger.Info(ctx, "session created",
		logger.String("session_id", sess.ID()),
		logger.String("player", name),
	)
	return snapshotOf(sess), nil
}

// Session returns the current state of a session.
func (s *Service) Session(ctx context.Context, id string) (Snapshot, error) {
	store, _, err := s.components()
	if err != nil {
		return Snapshot{}, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(sess), nil
}

// Play runs one round in session id. A non-empty roundID makes the call
// idempotent: replaying it returns the current scoreboard flagged Duplicate.
func (s *Service) Play(ctx context.Context, id, roundID string, m move.Move) (PlayResult, error) {
	store, deduper, err := s.components()
	if err != nil {
		return PlayResult{}, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return PlayResult{}, err
	}

	res := PlayResult{SessionID: id, RoundID: roundID}
	if roundID != "" && deduper.SeenAndRecord(ctx, dedupeKey(id, roundID)) {
		metrics.RecordRoundDuplicate()
		s.logger.Debug(ctx, "duplicate round ignored",
			logger.String("session_id", id),
			logger.String("round_id", roundID),
		)
		res.Duplicate = true
		res.Scoreboard = sess.Scoreboard()
		return res, nil
	}

	out := sess.Play(m)
	res.Outcome = &out
	res.Scoreboard = out.Scoreboard

	s.logger.Debug(ctx, "round played",
		logger.String("session_id", id),
		logger.Int("round", out.Round),
		logger.Stringer("user_move", out.UserMove),
		logger.Stringer("computer_move", out.ComputerMove),
		logger.Stringer("result", out.Result),
	)

	s.enqueue(ctx, model.RoundEvent{
		SessionID:    id,
		Round:        out.Round,
		UserMove:     out.UserMove,
		ComputerMove: out.ComputerMove,
		Result:       out.Result,
		TS:           sess.LastActive(),
	})
	return res, nil
}

// enqueue hands the round to the tally. A full queue costs the tally one
// round; the player's scoreboard is already updated.
func (s *Service) enqueue(ctx context.Context, ev model.RoundEvent) { //nolint:gocritic // hugeParam: events travel by value
	s.mu.RLock()
	q := s.eventQueue
	s.mu.RUnlock()

	err := q.TryEnqueue(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, eventqueue.ErrClosed):
		s.dropped.Add(1)
		s.logger.Debug(ctx, "round event dropped, service stopping", logger.String("session_id", ev.SessionID))
	default:
		s.dropped.Add(1)
		s.logger.Warn(ctx, "round event dropped",
			logger.String("session_id", ev.SessionID),
			logger.Int("round", ev.Round),
			logger.Error(err),
		)
	}
}

// EndSession destroys a session and forgets its round ids.
func (s *Service) EndSession(ctx context.Context, id string) error {
	store, deduper, err := s.components()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	forgotten := deduper.Forget(ctx, dedupeKey(id, ""))

	s.ended.Add(1)
	metrics.RecordSessionEnded("closed")
	s.logger.Info(ctx, "session ended",
		logger.String("session_id", id),
		logger.Int("round_ids", forgotten),
	)
	return nil
}

// onEvict runs on the janitor goroutine for each expired session. It must
// not take s.mu: Stop holds it while waiting for the janitor to exit.
func (s *Service) onEvict(deduper dedupe.Deduper, id string) {
	ctx := context.Background()
	deduper.Forget(ctx, dedupeKey(id, ""))
	s.ended.Add(1)
	s.logger.Info(ctx, "session expired", logger.String("session_id", id))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"maxSessions":     s.maxSessions,
		"sessionsCreated": s.created.Load(),
		"sessionsEnded":   s.ended.Load(),
		"eventsDropped":   s.dropped.Load(),
	}

	if s.started {
		active := s.sessions.Count(ctx)
		stats["activeSessions"] = active
		stats["queueLength"] = s.eventQueue.Len(ctx)
		stats["roundIDs"] = s.deduper.Size()
		stats["eventsProcessed"] = s.workerPool.Processed()

		totals := s.tally.Snapshot()
		stats["totals"] = totals
		stats["winRate"] = totals.WinRate()

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		metrics.UpdateSessionsActive(active)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	}

	return stats
}

// Totals returns the aggregate tally. It is zero before Start.
func (s *Service) Totals() tally.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tally == nil {
		return tally.New().Snapshot()
	}
	return s.tally.Snapshot()
}

func dedupeKey(sessionID, roundID string) string {
	return sessionID + ":" + roundID
}

func snapshotOf(sess *session.Session) Snapshot {
	st := sess.State()
	return Snapshot{
		ID:         sess.ID(),
		Player:     sess.PlayerName(),
		Opponent:   session.ComputerDisplayName,
		Scoreboard: st.Scoreboard,
		Last:       st.Last,
		CreatedAt:  sess.CreatedAt(),
		LastActive: st.LastActive,
	}
}
