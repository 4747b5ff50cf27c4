// Package chat relays the backend's real-time chat to the browser: a socket client with
// typed events, the per-page conversation lifecycle, REST history and sending.
package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

// Socket event names as spoken by the backend.
const (
	EventJoinRoom    = "joinRoom"
	EventLeaveRoom   = "leaveRoom"
	EventNewMessage  = "newMessage"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
)

// Event is one of NewMessageEvent, TypingEvent, StopTypingEvent or ConnectionEvent.
type Event interface {
	Room() string
	isEvent()
}

type NewMessageEvent struct {
	Message models.ChatMessage
}

type TypingEvent struct {
	ChatID   string
	UserID   int64
	UserName string
}

type StopTypingEvent struct {
	ChatID string
	UserID int64
}

// ConnectionEvent reports the state of the backend socket to every subscriber. Up is
// false while reconnecting; Lost means reconnection was given up.
type ConnectionEvent struct {
	ChatID string
	Up     bool
	Lost   bool
}

func (e NewMessageEvent) Room() string { return e.Message.ChatID }
func (e TypingEvent) Room() string     { return e.ChatID }
func (e StopTypingEvent) Room() string { return e.ChatID }
func (e ConnectionEvent) Room() string { return e.ChatID }

func (NewMessageEvent) isEvent() {}
func (TypingEvent) isEvent()     {}
func (StopTypingEvent) isEvent() {}
func (ConnectionEvent) isEvent() {}

// frame is the wire envelope: {"event": name, "data": {...}}.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// roomPayload is sent with joinRoom, leaveRoom, typing and stopTyping.
type roomPayload struct {
	ChatID   string `json:"chatId"`
	UserID   int64  `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

type sendPayload struct {
	ChatID      string `json:"chatId"`
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName,omitempty"`
	SenderID    int64  `json:"senderId"`
	ID          string `json:"id,omitempty"`
	Message     string `json:"message,omitempty"`
	MessageType string `json:"messageType,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	b, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", event, err)
	}
	return b, nil
}

// decodeEvent parses an incoming frame. Unknown event names yield (nil, nil).
func decodeEvent(raw []byte) (Event, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("socket frame is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	data := root.Get("data")
	chatID := data.Get("chatId").String()

	switch root.Get("event").String() {
	case EventNewMessage, EventSendMessage:
		return NewMessageEvent{Message: messageFrom(data)}, nil
	case EventTyping:
		return TypingEvent{ChatID: chatID, UserID: data.Get("userId").Int(), UserName: data.Get("userName").String()}, nil
	case EventStopTyping:
		return StopTypingEvent{ChatID: chatID, UserID: data.Get("userId").Int()}, nil
	default:
		return nil, nil
	}
}

// messageFrom reads a message from either a socket payload or a REST record.
func messageFrom(r gjson.Result) models.ChatMessage {
	m := models.ChatMessage{
		ID:          r.Get("id").String(),
		ChatID:      firstOf(r, "chatId", "chat_id").String(),
		SenderID:    firstOf(r, "senderId", "sender_id", "userId", "user_id").Int(),
		SenderName:  firstOf(r, "userName", "user_name", "sender.name").String(),
		Message:     r.Get("message").String(),
		MessageType: firstOf(r, "messageType", "message_type").String(),
		FileURL:     firstOf(r, "fileUrl", "file_url").String(),
	}
	if m.MessageType == "" {
		m.MessageType = "text"
		if m.FileURL != "" {
			m.MessageType = "file"
		}
	}
	if ts := firstOf(r, "createdAt", "created_at").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			m.CreatedAt = t
		}
	}
	return m
}

func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}
