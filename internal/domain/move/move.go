// Package move defines the three rock-paper-scissors moves and the
// cyclic relation that decides which move defeats which.
//
// Move is a closed type: its only field is unexported, so callers can
// obtain nothing but Rock, Paper, Scissors or the zero value, and the
// zero value is Rock. Every function over Move is therefore total.
package move

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMove is returned when presentation input names no move.
var ErrUnknownMove = errors.New("unknown move")

type id uint8

const (
	rock id = iota
	paper
	scissors
)

// Move is one player's choice for a round.
type Move struct {
	id id
}

// The three moves. The zero Move is Rock.
var (
	Rock     = Move{id: rock}
	Paper    = Move{id: paper}
	Scissors = Move{id: scissors}
)

type entry struct {
	name  string
	icon  string
	beats id
}

// catalog holds the fixed beats relation: each move defeats exactly one
// other move and loses to exactly one.
var catalog = [...]entry{
	rock:     {name: "rock", icon: "🪨", beats: scissors},
	paper:    {name: "paper", icon: "📃", beats: rock},
	scissors: {name: "scissors", icon: "✂️", beats: paper},
}

// All returns the closed set of moves in declaration order.
// The returned slice is a fresh copy.
func All() []Move {
	return []Move{Rock, Paper, Scissors}
}

// Beats reports whether a defeats b.
func Beats(a, b Move) bool {
	return catalog[a.id].beats == b.id
}

// Beats reports whether m defeats other.
func (m Move) Beats(other Move) bool { return Beats(m, other) }

// String returns the lower-case move name, e.g. "scissors".
func (m Move) String() string { return catalog[m.id].name }

// Icon returns the glyph shown on the move button.
func (m Move) Icon() string { return catalog[m.id].icon }

// Parse maps user input to a move. It accepts the full name, its first
// letter or the icon, case-insensitively and ignoring surrounding space.
func Parse(s string) (Move, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	for _, m := range All() {
		e := catalog[m.id]
		if in == e.name || in == e.name[:1] || in == e.icon || in == strings.TrimSuffix(e.icon, "️") {
			return m, nil
		}
	}
	return Rock, fmt.Errorf("%w: %q", ErrUnknownMove, s)
}

// MarshalText encodes the move as its name.
func (m Move) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a move from any form accepted by Parse.
func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
