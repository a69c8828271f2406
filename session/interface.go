// Package session keeps per-chat conversation state: the recent
// user/assistant turns handed to the answer synthesizer as context.
package session

import (
	"context"
	"errors"
)

// Common errors for session store operations.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrNotFound         = errors.New("session not found")
)

// Store defines the interface for session storage operations.
type Store interface {
	// Create creates a new session with Version set to 1.
	Create(ctx context.Context, data *ChatSession) error

	// Get retrieves a session by chat id.
	// Returns nil if the session is not found (not an error).
	Get(ctx context.Context, chatID int64) (*ChatSession, error)

	// Update updates an existing session with optimistic locking.
	// Verifies the Version matches the stored version, increments Version,
	// updates UpdatedAt timestamp, and persists the session.
	// Returns ErrVersionConflict if the version does not match.
	// Returns ErrNotFound if the session does not exist.
	Update(ctx context.Context, data *ChatSession) error

	// Delete deletes a session by chat id.
	Delete(ctx context.Context, chatID int64) error

	// Close closes the store and releases any resources.
	Close() error
}
