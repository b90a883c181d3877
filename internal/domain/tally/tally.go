// Package tally aggregates played rounds across every session.
package tally

import (
	"context"
	"sync"

	"github.com/okian/roshambo/internal/domain/model"
	"github.com/okian/roshambo/internal/domain/move"
	"github.com/okian/roshambo/internal/domain/round"
)

// Totals is a snapshot of the aggregate counts.
type Totals struct {
	Rounds        int            `json:"rounds"`
	Wins          int            `json:"wins"`
	Losses        int            `json:"losses"`
	Ties          int            `json:"ties"`
	UserMoves     map[string]int `json:"user_moves"`
	ComputerMoves map[string]int `json:"computer_moves"`
}

// WinRate returns wins over decisive rounds, or 0 before any.
func (t Totals) WinRate() float64 {
	decisive := t.Wins + t.Losses
	if decisive == 0 {
		return 0
	}
	return float64(t.Wins) / float64(decisive)
}

// Tally counts results and moves. Safe for concurrent use.
type Tally struct {
	mu       sync.RWMutex
	results  map[round.Result]int
	user     map[move.Move]int
	computer map[move.Move]int
}

// New returns an empty tally.
func New() *Tally {
	return &Tally{
		results:  make(map[round.Result]int),
		user:     make(map[move.Move]int),
		computer: make(map[move.Move]int),
	}
}

// Record adds one round. It never fails; the error return lets Tally
// stand in for any round recorder.
func (t *Tally) Record(_ context.Context, ev model.RoundEvent) error { //nolint:gocritic // hugeParam: events travel by value
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[ev.Result]++
	t.user[ev.UserMove]++
	t.computer[ev.ComputerMove]++
	return nil
}

// Snapshot returns the current totals.
func (t *Tally) Snapshot() Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := Totals{
		Wins:          t.results[round.Win],
		Losses:        t.results[round.Loss],
		Ties:          t.results[round.Tie],
		UserMoves:     make(map[string]int, len(move.All())),
		ComputerMoves: make(map[string]int, len(move.All())),
	}
	out.Rounds = out.Wins + out.Losses + out.Ties
	for _, m := range move.All() {
		out.UserMoves[m.String()] = t.user[m]
		out.ComputerMoves[m.String()] = t.computer[m]
	}
	return out
}
