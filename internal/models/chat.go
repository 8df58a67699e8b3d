package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one transcript line.
type ChatMessage struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	IsUser    bool      `json:"isUser" yaml:"isUser"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewChatMessage stamps a message with a fresh ID and the current time.
func NewChatMessage(text string, isUser bool) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: time.Now(),
	}
}

// Clock formats the timestamp as HH:MM.
func (m ChatMessage) Clock() string {
	return m.Timestamp.Format("15:04")
}
