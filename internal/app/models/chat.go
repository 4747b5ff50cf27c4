package models

import "time"

// Conversation is one entry in the chat sidebar.
type Conversation struct {
	ChatID          string    `json:"chatId"`
	CounterpartID   int64     `json:"counterpartId"`
	CounterpartName string    `json:"counterpartName"`
	LastMessage     string    `json:"lastMessage,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Unread          int       `json:"unread"`
}

// ChatMessage is a single message of a conversation.
type ChatMessage struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chatId"`
	SenderID    int64     `json:"senderId"`
	SenderName  string    `json:"userName,omitempty"`
	Message     string    `json:"message,omitempty"`
	MessageType string    `json:"messageType,omitempty"`
	FileURL     string    `json:"fileUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Mine reports whether the message was sent by the given staff member.
func (m ChatMessage) Mine(userID int64) bool {
	return m.SenderID == userID
}
