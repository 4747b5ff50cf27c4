package chat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

// RoomSocket is what a conversation needs from the socket.
type RoomSocket interface {
	Subscribe(chatID string) (<-chan Event, func())
	Join(chatID string, user models.Session) error
	Leave(chatID string, user models.Session) error
}

type hubEntry struct {
	client *SocketClient
	refs   int
	// ready is closed once the first dial finished; err is its result.
	ready chan struct{}
	err   error
}

// Hub shares one backend socket per logged-in staff member across their open chat tabs.
type Hub struct {
	url        string
	maxElapsed time.Duration
	logger     *zap.Logger
	newClient  func(SocketOptions) *SocketClient

	mu      sync.Mutex
	clients map[string]*hubEntry
}

func NewHub(socketURL string, maxElapsed time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		url:        socketURL,
		maxElapsed: maxElapsed,
		logger:     logger,
		newClient:  NewSocketClient,
		clients:    make(map[string]*hubEntry),
	}
}

// Acquire returns the connected socket of sess. release must be called when the caller
// is done; the socket closes with its last user. The dial happens outside the hub lock, and
// concurrent callers for the same token wait for the first dial instead of dialing again.
func (h *Hub) Acquire(ctx context.Context, sess models.Session) (*SocketClient, func(), error) {
	key := sess.Token

	h.mu.Lock()
	entry, ok := h.clients[key]
	if !ok {
		entry = &hubEntry{ready: make(chan struct{})}
		entry.client = h.newClient(SocketOptions{
			URL:        h.url,
			Token:      sess.Token,
			MaxElapsed: h.maxElapsed,
			Logger:     h.logger.With(zap.Int64("user_id", sess.ID)),
			OnGiveUp:   func() { h.evict(key, entry) },
		})
		h.clients[key] = entry
	}
	entry.refs++
	h.mu.Unlock()

	release := h.releaser(key, entry)

	if !ok {
		err := entry.client.Connect(ctx)
		h.mu.Lock()
		entry.err = err
		if err != nil && h.clients[key] == entry {
			delete(h.clients, key)
		}
		close(entry.ready)
		h.mu.Unlock()
	}

	select {
	case <-entry.ready:
	case <-ctx.Done():
		release()
		return nil, nil, ctx.Err()
	}
	if entry.err != nil {
		release()
		return nil, nil, entry.err
	}
	return entry.client, release, nil
}

func (h *Hub) releaser(key string, entry *hubEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			entry.refs--
			last := entry.refs <= 0
			if last && h.clients[key] == entry {
				delete(h.clients, key)
			}
			h.mu.Unlock()
			if !last {
				return
			}
			if err := entry.client.Close(); err != nil {
				h.logger.Debug("Closing chat socket", zap.Error(err))
			}
		})
	}
}

// evict forgets a socket that stopped reconnecting so the next Acquire dials a fresh one.
// Current holders keep it until they release.
func (h *Hub) evict(key string, entry *hubEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == entry {
		delete(h.clients, key)
	}
}

// Close shuts every socket, used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, entry := range h.clients {
		_ = entry.client.Close()
		delete(h.clients, key)
	}
}

// Len is the number of open backend sockets.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
