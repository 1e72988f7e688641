package model

import (
	"time"

	"github.com/google/uuid"
)

// Session owns one conversation and its token accounting. A session is
// created on the first user message (or on resume from history) and
// released when the panel closes or the user starts a new conversation.
type Session struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []Message  `json:"messages"`
	Usage     TokenUsage `json:"usage"`
}

// NewSession creates an empty session with a fresh ID.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}
}

// Append adds a message to the conversation. Order is append-only and
// semantically significant; callers never reorder or insert.
func (s *Session) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
}

// LastAssistant returns the most recent assistant message, or nil.
func (s *Session) LastAssistant() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return &s.Messages[i]
		}
	}
	return nil
}

// Rounds counts user turns in the conversation. One round is a user
// message plus everything up to the next user message.
func (s *Session) Rounds() int {
	rounds := 0
	for _, msg := range s.Messages {
		if msg.Role == RoleUser {
			rounds++
		}
	}
	return rounds
}
