package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/observability/metrics"
	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/debugger"
)

const (
	writeTimeout  = 10 * time.Second
	subscriberBuf = 32
)

var ErrNotConnected = errors.New("chat socket is not connected")

type SocketOptions struct {
	URL   string
	Token string
	// MaxElapsed bounds the whole reconnection attempt.
	MaxElapsed time.Duration
	Dialer     *websocket.Dialer
	NewBackOff func() backoff.BackOff
	Logger     *zap.Logger
	// OnGiveUp runs once reconnection has been abandoned.
	OnGiveUp func()
}

type joinedRoom struct {
	payload roomPayload
	refs    int
}

// SocketClient is one staff member's connection to the backend chat socket. Rooms joined
// through it are re-joined after every reconnect.
type SocketClient struct {
	opts   SocketOptions
	logger *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	conn    *websocket.Conn
	rooms   map[string]*joinedRoom
	subs    map[string]map[uint64]chan Event
	nextSub uint64
	closed  bool
	done    chan struct{}
}

func NewSocketClient(opts SocketOptions) *SocketClient {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.MaxElapsed <= 0 {
		opts.MaxElapsed = 2 * time.Minute
	}
	if opts.NewBackOff == nil {
		opts.NewBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	return &SocketClient{
		opts:   opts,
		logger: opts.Logger,
		rooms:  make(map[string]*joinedRoom),
		subs:   make(map[string]map[uint64]chan Event),
		done:   make(chan struct{}),
	}
}

// Connect dials the backend and starts reading frames.
func (s *SocketClient) Connect(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return ErrNotConnected
	}
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn)
	return nil
}

func (s *SocketClient) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.opts.URL)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid socket url: %w", err))
	}
	header := http.Header{}
	if s.opts.Token != "" {
		q := u.Query()
		q.Set("token", s.opts.Token)
		u.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+s.opts.Token)
	}

	conn, resp, err := s.opts.Dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, backoff.Permanent(fmt.Errorf("chat socket: %w", models.ErrUnauthenticated))
		}
		return nil, fmt.Errorf("failed to dial chat socket: %w", err)
	}
	return conn, nil
}

// Connected reports whether a backend connection is currently up.
func (s *SocketClient) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Subscribe delivers the events of one room. The returned func stops delivery and closes
// the channel; it is safe to call more than once.
func (s *SocketClient) Subscribe(chatID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuf)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.nextSub++
	id := s.nextSub
	if s.subs[chatID] == nil {
		s.subs[chatID] = make(map[uint64]chan Event)
	}
	s.subs[chatID][id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if room, ok := s.subs[chatID]; ok {
				if c, ok := room[id]; ok {
					delete(room, id)
					close(c)
				}
				if len(room) == 0 {
					delete(s.subs, chatID)
				}
			}
		})
	}
}

// Join enters a room. While the socket is reconnecting the join is kept and sent once the
// connection is back.
func (s *SocketClient) Join(chatID string, user models.Session) error {
	payload := roomPayload{ChatID: chatID, UserID: user.ID, UserName: user.Name}

	s.mu.Lock()
	room, ok := s.rooms[chatID]
	if !ok {
		room = &joinedRoom{payload: payload}
		s.rooms[chatID] = room
	}
	room.refs++
	first := room.refs == 1
	s.mu.Unlock()

	if !first {
		return nil
	}
	if err := s.emit(EventJoinRoom, payload); err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}
	return nil
}

// Leave exits a room once its last viewer is gone.
func (s *SocketClient) Leave(chatID string, user models.Session) error {
	s.mu.Lock()
	room, ok := s.rooms[chatID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	room.refs--
	last := room.refs <= 0
	if last {
		delete(s.rooms, chatID)
	}
	s.mu.Unlock()

	if !last {
		return nil
	}
	err := s.emit(EventLeaveRoom, roomPayload{ChatID: chatID, UserID: user.ID})
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

func (s *SocketClient) Typing(chatID string, user models.Session, typing bool) error {
	event := EventStopTyping
	if typing {
		event = EventTyping
	}
	return s.emit(event, roomPayload{ChatID: chatID, UserID: user.ID, UserName: user.Name})
}

// SendMessage announces a message the REST call already stored.
func (s *SocketClient) SendMessage(msg models.ChatMessage, user models.Session) error {
	p := sendPayload{
		ChatID:      msg.ChatID,
		UserID:      user.ID,
		UserName:    user.Name,
		SenderID:    user.ID,
		ID:          msg.ID,
		Message:     msg.Message,
		MessageType: msg.MessageType,
		FileURL:     msg.FileURL,
	}
	if !msg.CreatedAt.IsZero() {
		p.CreatedAt = msg.CreatedAt.Format(time.RFC3339Nano)
	}
	return s.emit(EventSendMessage, p)
}

func (s *SocketClient) emit(event string, data any) error {
	b, err := encodeFrame(event, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	debugger.LogFrame(s.logger, "out", b)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("failed to write %s: %w", event, err)
	}
	return nil
}

func (s *SocketClient) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[ev.Room()] {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("Dropping chat event for slow subscriber", zap.String("chat_id", ev.Room()))
		}
	}
}

// broadcastConnection tells every subscriber of every room about the socket state.
func (s *SocketClient) broadcastConnection(up, lost bool) {
	s.mu.Lock()
	rooms := make([]string, 0, len(s.subs))
	for room := range s.subs {
		rooms = append(rooms, room)
	}
	s.mu.Unlock()
	for _, room := range rooms {
		s.publish(ConnectionEvent{ChatID: room, Up: up, Lost: lost})
	}
}

func (s *SocketClient) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *SocketClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.isClosed() {
				return
			}
			s.logger.Warn("Chat socket read failed", zap.Error(err))
			s.reconnect(conn)
			return
		}
		debugger.LogFrame(s.logger, "in", data)
		ev, err := decodeEvent(data)
		if err != nil {
			s.logger.Warn("Ignoring malformed chat frame", zap.Error(err))
			continue
		}
		if ev == nil {
			continue
		}
		s.publish(ev)
	}
}

// reconnect redials with exponential backoff, re-joins every room and resumes reading.
// When it gives up subscribers get a lost ConnectionEvent.
func (s *SocketClient) reconnect(dead *websocket.Conn) {
	s.mu.Lock()
	if s.conn == dead {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = dead.Close()
	s.broadcastConnection(false, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		metrics.IncReconnect(ctx)
		return s.dial(ctx)
	},
		backoff.WithBackOff(s.opts.NewBackOff()),
		backoff.WithMaxElapsedTime(s.opts.MaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Info("Chat socket reconnect failed, retrying", zap.Duration("next", next), zap.Error(err))
		}),
	)
	if err != nil {
		if s.isClosed() {
			return
		}
		s.logger.Error("Giving up on chat socket", zap.Error(err))
		s.broadcastConnection(false, true)
		if s.opts.OnGiveUp != nil {
			s.opts.OnGiveUp()
		}
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	rejoin := make([]roomPayload, 0, len(s.rooms))
	for _, room := range s.rooms {
		rejoin = append(rejoin, room.payload)
	}
	s.mu.Unlock()

	go s.readLoop(conn)
	for _, p := range rejoin {
		if err := s.emit(EventJoinRoom, p); err != nil {
			s.logger.Warn("Failed to rejoin chat room", zap.String("chat_id", p.ChatID), zap.Error(err))
		}
	}
	s.logger.Info("Chat socket reconnected", zap.Int("rooms", len(rejoin)))
	s.broadcastConnection(true, false)
}

// Close drops the connection and ends every subscription.
func (s *SocketClient) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	conn := s.conn
	s.conn = nil
	for room, subs := range s.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(s.subs, room)
	}
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return conn.Close()
}
