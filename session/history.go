package session

import "time"

// Append adds a conversation turn to the session history with an estimated
// token count.
func (s *ChatSession) Append(role, content string) {
	s.History = append(s.History, Message{
		Role:       role,
		Content:    content,
		TokenCount: EstimateTokens(content),
		Timestamp:  time.Now(),
	})
}

// Truncate trims the history to the given message and token limits, keeping
// the most recent messages. The message limit is applied first, then oldest
// messages are dropped until the token budget fits.
func (s *ChatSession) Truncate(tokenLimit, messageLimit int) {
	history := s.History
	if len(history) == 0 {
		return
	}

	if messageLimit > 0 && len(history) > messageLimit {
		history = history[len(history)-messageLimit:]
	}

	totalTokens := 0
	for _, msg := range history {
		totalTokens += msg.TokenCount
	}

	for totalTokens > tokenLimit && len(history) > 0 {
		totalTokens -= history[0].TokenCount
		history = history[1:]
	}

	s.History = history
}
