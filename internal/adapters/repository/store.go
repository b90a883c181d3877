// Package repository holds live game sessions in memory.
package repository

import (
	"context"

	"github.com/okian/roshambo/internal/session"
)

// Store provides access to live sessions by id.
type Store interface {
	// Create adds a session. It fails with ErrCapacity when full and
	// ErrExists when the id is taken.
	Create(ctx context.Context, s *session.Session) error

	// Get returns the session for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes the session for id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}
