package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

type State int

const (
	StateIdle State = iota
	StateJoining
	StateActive
	StateLeft
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateLeft:
		return "left"
	default:
		return "unknown"
	}
}

var ErrInvalidTransition = errors.New("invalid conversation transition")

// HistoryLoader fetches the messages already stored for a chat.
type HistoryLoader interface {
	History(ctx context.Context, sess models.Session, chatID string) ([]models.ChatMessage, error)
}

// Conversation is one open chat page: idle, then joining while the room is entered and
// history loaded, active while events flow, and left once closed. It is never reopened.
type Conversation struct {
	chatID  string
	sess    models.Session
	socket  RoomSocket
	history HistoryLoader

	mu          sync.Mutex
	state       State
	unsubscribe func()
}

func NewConversation(chatID string, sess models.Session, socket RoomSocket, history HistoryLoader) *Conversation {
	return &Conversation{chatID: chatID, sess: sess, socket: socket, history: history}
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open joins the room and loads history. Events are subscribed to before joining, so
// nothing sent in between is lost.
func (c *Conversation) Open(ctx context.Context) ([]models.ChatMessage, <-chan Event, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return nil, nil, fmt.Errorf("open from %s: %w", state, ErrInvalidTransition)
	}
	c.state = StateJoining
	c.mu.Unlock()

	events, unsubscribe := c.socket.Subscribe(c.chatID)
	if err := c.socket.Join(c.chatID, c.sess); err != nil {
		unsubscribe()
		c.setState(StateLeft)
		return nil, nil, fmt.Errorf("failed to join chat %s: %w", c.chatID, err)
	}

	msgs, err := c.history.History(ctx, c.sess, c.chatID)
	if err != nil {
		unsubscribe()
		_ = c.socket.Leave(c.chatID, c.sess)
		c.setState(StateLeft)
		return nil, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateJoining {
		// closed while joining
		unsubscribe()
		return nil, nil, fmt.Errorf("open interrupted: %w", ErrInvalidTransition)
	}
	c.unsubscribe = unsubscribe
	c.state = StateActive
	return msgs, events, nil
}

// Close leaves the room. Closing twice is a no-op.
func (c *Conversation) Close() error {
	c.mu.Lock()
	if c.state == StateLeft {
		c.mu.Unlock()
		return nil
	}
	wasJoined := c.state == StateActive
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.state = StateLeft
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if wasJoined {
		return c.socket.Leave(c.chatID, c.sess)
	}
	return nil
}

func (c *Conversation) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
