// Package score keeps the two score counters of a session.
package score

import "github.com/okian/roshambo/internal/domain/round"

// Scoreboard is a point-in-time view of a tracker.
// Rounds always equals User + Computer + Ties.
type Scoreboard struct {
	User     int `json:"user"`
	Computer int `json:"computer"`
	Ties     int `json:"ties"`
	Rounds   int `json:"rounds"`
}

// Tracker holds the user and computer counters. Both start at zero and
// only ever grow by one. A Tracker is not safe for concurrent use; its
// owner serializes rounds.
type Tracker struct {
	user     int
	computer int
	ties     int
}

// NewTracker returns a tracker at (0, 0).
func NewTracker() *Tracker {
	return &Tracker{}
}

// Apply credits the round's winner. A tie changes neither counter.
func (t *Tracker) Apply(r round.Result) {
	p, ok := r.Winner()
	if !ok {
		t.ties++
		return
	}
	t.Increment(p)
}

// Increment moves the given player's counter from n to n+1.
func (t *Tracker) Increment(p round.Player) {
	if p == round.Computer {
		t.computer++
		return
	}
	t.user++
}

// User returns the user's score.
func (t *Tracker) User() int { return t.user }

// Computer returns the computer's score.
func (t *Tracker) Computer() int { return t.computer }

// Snapshot returns the current scoreboard.
func (t *Tracker) Snapshot() Scoreboard {
	return Scoreboard{
		User:     t.user,
		Computer: t.computer,
		Ties:     t.ties,
		Rounds:   t.user + t.computer + t.ties,
	}
}
