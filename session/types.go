package session

import "time"

// Message represents a single conversation turn.
type Message struct {
	Role       string    `json:"role"` // "user" or "assistant"
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"` // Estimated tokens
	Timestamp  time.Time `json:"timestamp"`
}

// ChatSession is the serializable conversation state for one chat. It can
// be restored from Redis after a process restart, unlike the vector index
// which is rebuilt by warm-start replay.
type ChatSession struct {
	ChatID    int64     `json:"chat_id"`
	GroupID   string    `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"` // Monotonically increasing for optimistic locking
	History   []Message `json:"history"`
}

// clone returns a deep copy. Stores hand out clones so concurrent handlers
// for the same chat never mutate shared history; conflicting writes are
// caught by the version check on Update instead.
func (s *ChatSession) clone() *ChatSession {
	out := *s
	out.History = append([]Message(nil), s.History...)
	return &out
}
