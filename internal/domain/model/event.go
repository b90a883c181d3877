// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/roshambo/internal/domain/move"
	"github.com/okian/roshambo/internal/domain/round"
)

// RoundEvent records a played round for asynchronous aggregation.
type RoundEvent struct {
	SessionID    string       // session the round belongs to
	Round        int          // 1-based round number within the session
	UserMove     move.Move    // the user's pick
	ComputerMove move.Move    // the computer's pick
	Result       round.Result // outcome for the user
	TS           time.Time    // when the round resolved
}
