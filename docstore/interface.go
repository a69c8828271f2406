// Package docstore defines the durable document store consumed by the
// index manager: per-group ordered document texts, write-through saves, and
// chat-to-group routing.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNoGroup indicates a chat has no group mapping in the store.
var ErrNoGroup = errors.New("chat is not mapped to a group")

// Document is one knowledge-base entry together with its submission
// metadata. Text is immutable once saved.
type Document struct {
	UserID    int64     `json:"tg_id"`
	ChatID    int64     `json:"chat_id"`
	GroupID   string    `json:"group_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is one tenant as stored in the relational store. Only the ID is a
// registry key; the title is display-only.
type Group struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Store provides access to persisted documents and group routing.
type Store interface {
	// LoadAll returns all document texts for a group, oldest first. The
	// order defines the positions replayed into the vector index at
	// warm-start, so it must be stable.
	LoadAll(ctx context.Context, groupID string) ([]string, error)

	// Save persists a document. Called on every insert before the vector
	// is indexed. Duplicate-submission policy lives here, not in the index.
	Save(ctx context.Context, doc Document) error

	// ListGroups returns every group that has a knowledge base. Drives
	// which groups get warmed at startup.
	ListGroups(ctx context.Context) ([]Group, error)

	// GroupForChat resolves the group a chat submits to. Returns
	// ErrNoGroup when the chat is unmapped.
	GroupForChat(ctx context.Context, chatID int64) (string, error)

	// Close releases any resources held by the store.
	Close() error
}
