package core

import (
	"time"

	"github.com/google/uuid"
)

// AdminSender labels system-generated join/leave notices.
const AdminSender = "Admin"

// Message is the domain model for a chat message. Messages are
// transient: they exist only for delivery and are never persisted.
type Message struct {
	ID        string
	Sender    string
	Body      string
	CreatedAt time.Time
}

// NewMessage builds a message with a fresh id and timestamp.
func NewMessage(sender, body string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now(),
	}
}
