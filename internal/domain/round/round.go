// Package round resolves a round from the user's point of view.
package round

import (
	"errors"
	"fmt"

	"github.com/okian/roshambo/internal/domain/move"
)

// ErrUnknownResult is returned when decoding a result name fails.
var ErrUnknownResult = errors.New("unknown result")

type outcome uint8

const (
	tie outcome = iota
	win
	loss
)

// Result is the outcome of a round for the user. The zero value is Tie.
type Result struct {
	o outcome
}

// Results of a round.
var (
	Tie  = Result{o: tie}
	Win  = Result{o: win}
	Loss = Result{o: loss}
)

var resultNames = [...]string{tie: "tie", win: "win", loss: "loss"}

var resultMessages = [...]string{tie: "You tied.", win: "You won!", loss: "You lost."}

// Resolve compares the two moves. Equal moves tie; otherwise the user wins
// exactly when the user's move beats the computer's.
func Resolve(user, computer move.Move) Result {
	switch {
	case user == computer:
		return Tie
	case move.Beats(user, computer):
		return Win
	default:
		return Loss
	}
}

// Winner returns the player to credit. ok is false for a tie.
func (r Result) Winner() (p Player, ok bool) {
	switch r {
	case Win:
		return User, true
	case Loss:
		return Computer, true
	default:
		return User, false
	}
}

// Invert returns the same round seen from the computer's side.
func (r Result) Invert() Result {
	switch r {
	case Win:
		return Loss
	case Loss:
		return Win
	default:
		return Tie
	}
}

// String returns "win", "loss" or "tie".
func (r Result) String() string { return resultNames[r.o] }

// Message returns the title shown to the user after a round.
func (r Result) Message() string { return resultMessages[r.o] }

// MarshalText encodes the result as its name.
func (r Result) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a result from its name.
func (r *Result) UnmarshalText(text []byte) error {
	for i, name := range resultNames {
		if name == string(text) {
			r.o = outcome(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownResult, text)
}

// Results lists every result.
func Results() []Result { return []Result{Win, Loss, Tie} }
