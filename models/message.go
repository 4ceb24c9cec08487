package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender is the author of a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one chat turn. Messages are owned by exactly one session.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage builds a message with a fresh id and the current time.
func NewMessage(sender Sender, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
