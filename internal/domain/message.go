package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message in the conversation log.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the conversation log. Messages are never
// edited once appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
