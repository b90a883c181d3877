// Package session owns the state of one game: a score tracker and the
// source of the computer's moves. Presentation layers hold a Session and
// call Play once per button press.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/okian/roshambo/internal/domain/move"
	"github.com/okian/roshambo/internal/domain/random"
	"github.com/okian/roshambo/internal/domain/round"
	"github.com/okian/roshambo/internal/domain/score"
)

// Default display names.
const (
	DefaultPlayerName   = "PLAYER"
	ComputerDisplayName = "COMPUTER"
)

// Outcome describes one played round.
type Outcome struct {
	Round        int              `json:"round"`
	UserMove     move.Move        `json:"user_move"`
	ComputerMove move.Move        `json:"computer_move"`
	Result       round.Result     `json:"result"`
	Title        string           `json:"title"`
	Detail       string           `json:"detail"`
	Scoreboard   score.Scoreboard `json:"scoreboard"`
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithPlayerName sets the user's display name.
func WithPlayerName(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.player = name
		}
	}
}

// WithMoveSource sets where the computer's moves come from.
func WithMoveSource(src random.MoveSource) Option {
	return func(s *Session) {
		if src != nil {
			s.source = src
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is one user's game against the computer. Rounds are serialized:
// concurrent calls to Play resolve one after the other.
type Session struct {
	mu sync.Mutex

	id      string
	player  string
	tracker *score.Tracker
	source  random.MoveSource
	last    *Outcome

	now        func() time.Time
	createdAt  time.Time
	lastPlayed time.Time
}

// New creates a session at (0, 0).
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:      id,
		player:  DefaultPlayerName,
		tracker: score.NewTracker(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = random.NewSource()
	}
	s.createdAt = s.now()
	s.lastPlayed = s.createdAt
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PlayerName returns the user's display name.
func (s *Session) PlayerName() string { return s.player }

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Play runs a round: the computer picks a move, the round is resolved and
// the winner credited.
func (s *Session) Play(userMove move.Move) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play(userMove, s.source.Next())
}

// PlayAgainst runs a round against a known computer move.
func (s *Session) PlayAgainst(userMove, computerMove move.Move) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play(userMove, computerMove)
}

func (s *Session) play(userMove, computerMove move.Move) Outcome {
	result := round.Resolve(userMove, computerMove)
	s.tracker.Apply(result)
	s.lastPlayed = s.now()

	sb := s.tracker.Snapshot()
	out := Outcome{
		Round:        sb.Rounds,
		UserMove:     userMove,
		ComputerMove: computerMove,
		Result:       result,
		Title:        result.Message(),
		Detail:       Reveal(computerMove),
		Scoreboard:   sb,
	}
	s.last = &out
	return out
}

// Scoreboard returns the current scores.
func (s *Session) Scoreboard() score.Scoreboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Snapshot()
}

// Last returns the most recent outcome, if any round was played.
func (s *Session) Last() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

// State is a consistent view of a session taken under one lock.
type State struct {
	Scoreboard score.Scoreboard
	Last       *Outcome
	LastActive time.Time
}

// State returns the scoreboard, last outcome and last activity together.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Scoreboard: s.tracker.Snapshot(), LastActive: s.lastPlayed}
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	return st
}

// LastActive returns the time of the last round, or creation if none.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPlayed
}

// Reveal is the message line naming the computer's move. It is shown for
// every result, ties included.
func Reveal(computerMove move.Move) string {
	return fmt.Sprintf("The computer picked %s.", computerMove)
}
