package conversation

import (
	"time"

	"lexshell/pkg/lextypes"
)

// Status is the lifecycle of a transcript entry.
// User entries are Sent; assistant entries move from Pending to Fulfilled or Failed.
type Status int

// Transcript entry states.
const (
	StatusSent Status = iota
	StatusPending
	StatusFulfilled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusPending:
		return "pending"
	case StatusFulfilled:
		return "fulfilled"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// MarshalText lets exports write the state by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Message is one transcript entry. Messages are only ever updated by ID.
type Message struct {
	ID        string               `json:"id" yaml:"id"`
	Role      lextypes.Role        `json:"role" yaml:"role"`
	Content   string               `json:"content" yaml:"content"`
	Timestamp time.Time            `json:"timestamp" yaml:"timestamp"`
	Status    Status               `json:"status" yaml:"status"`
	Response  *lextypes.AIResponse `json:"response,omitempty" yaml:"response,omitempty"`
}

// IsLoading reports whether the entry is awaiting a reply.
func (m Message) IsLoading() bool {
	return m.Status == StatusPending
}

// Session threads the backend conversation id through successive requests.
// An empty ConversationID means no conversation has been established.
type Session struct {
	ConversationID string `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
}

// IsZero reports whether no conversation has been established.
func (s Session) IsZero() bool {
	return s.ConversationID == ""
}
