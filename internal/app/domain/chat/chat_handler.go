package chat

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/observability/metrics"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

const (
	maxAttachment = 20 << 20
	pongWait      = 60 * time.Second
	pingPeriod    = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Handler struct {
	*handlers.BaseHandler
	service *Service
	hub     *Hub
	dedupe  *Deduper
}

func NewHandler(base *handlers.BaseHandler, service *Service, hub *Hub, dedupe *Deduper) *Handler {
	if dedupe == nil {
		dedupe = NewDeduper(0)
	}
	return &Handler{BaseHandler: base, service: service, hub: hub, dedupe: dedupe}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	guard := middleware.RequireRole(h.Logger, models.RoleAdmin, models.RoleEngineer, models.RoleUser)
	rg.GET("/chat", guard, h.ShowChat)
	rg.GET("/chat/:chatId", guard, h.ShowChat)
	rg.POST("/chat/:chatId/messages", guard, h.Send)
	rg.GET("/ws/chat/:chatId", guard, h.Relay)
}

// ShowChat renders the conversation list, and the panel of the selected chat if any.
func (h *Handler) ShowChat(c *gin.Context) {
	sess := session.Current(c)
	props := ChatPageProps{ActiveID: c.Param("chatId"), Instance: uuid.NewString(), Me: sess}

	convs, err := h.service.Conversations(c.Request.Context(), sess)
	if err != nil {
		if h.HandleUnauthorized(c, err) {
			return
		}
		h.Logger.Warn("Failed to load chats", zap.Error(err))
		props.Error = "Could not load conversations."
	}
	props.Conversations = convs
	h.RenderPage(c, "Chat", "Chat", ChatPage(props))
}

// Send stores the message through REST, announces it on the socket and answers with the
// bubble for the sender's own list.
func (h *Handler) Send(c *gin.Context) {
	sess := session.Current(c)
	chatID := c.Param("chatId")
	l := h.Logger.With(zap.String("chat_id", chatID), zap.Int64("user_id", sess.ID))

	out, cleanup, err := readOutgoing(c)
	defer cleanup()
	if err != nil {
		l.Warn("Unreadable chat form", zap.Error(err))
		h.Toast(c, models.ToastError, "Could not read the message.")
		h.NoSwap(c, http.StatusBadRequest)
		return
	}
	if out.Empty() {
		h.Toast(c, models.ToastError, "Write a message or attach a file.")
		h.NoSwap(c, http.StatusUnprocessableEntity)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), sess, chatID, out)
	if err != nil {
		if h.HandleUnauthorized(c, err) {
			return
		}
		h.Toast(c, models.ToastError, backend.MessageOf(err, "Message not sent."))
		h.NoSwap(c, backend.StatusFor(err))
		return
	}

	h.dedupe.Remember(c.PostForm("instance"), msg.ID)
	h.announce(c.Request.Context(), sess, msg)
	h.Render(c, http.StatusOK, Bubble(msg, sess.ID))
}

// announce emits sendMessage for the other participants. The message is already stored, so
// a socket failure is only logged.
func (h *Handler) announce(ctx context.Context, sess models.Session, msg models.ChatMessage) {
	if h.hub == nil {
		return
	}
	sock, release, err := h.hub.Acquire(ctx, sess)
	if err != nil {
		h.Logger.Warn("Chat socket unavailable, message not announced", zap.String("chat_id", msg.ChatID), zap.Error(err))
		return
	}
	defer release()
	if err := sock.SendMessage(msg, sess); err != nil {
		h.Logger.Warn("Failed to announce chat message", zap.String("chat_id", msg.ChatID), zap.Error(err))
	}
}

func readOutgoing(c *gin.Context) (Outgoing, func(), error) {
	noop := func() {}
	if err := c.Request.ParseMultipartForm(maxAttachment); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return Outgoing{}, noop, err
	}
	out := Outgoing{Text: c.Request.FormValue("message")}
	fh, err := c.FormFile("file")
	if err != nil || fh.Size == 0 {
		return out, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return out, noop, err
	}
	out.File = &Attachment{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Content: f}
	return out, func() { _ = f.Close() }, nil
}

// Relay bridges one browser chat panel to the backend socket. The browser receives htmx
// out-of-band fragments and sends typing frames.
func (h *Handler) Relay(c *gin.Context) {
	sess := session.Current(c)
	chatID := c.Param("chatId")
	instance := c.Query("instance")
	l := h.Logger.With(zap.String("chat_id", chatID), zap.Int64("user_id", sess.ID))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.AddChatConnections(ctx, 1)
	defer metrics.AddChatConnections(ctx, -1)

	out := &relayWriter{ws: ws}

	sock, release, err := h.hub.Acquire(ctx, sess)
	if err != nil {
		l.Warn("Chat socket unavailable", zap.Error(err))
		_ = out.send(ctx, StatusBanner(ConnectionEvent{ChatID: chatID, Lost: true}, true))
		return
	}
	defer release()

	conv := NewConversation(chatID, sess, sock, h.service)
	history, events, err := conv.Open(ctx)
	if err != nil {
		l.Warn("Failed to open conversation", zap.Error(err))
		_ = out.send(ctx, StatusBanner(ConnectionEvent{ChatID: chatID, Lost: true}, true))
		return
	}
	defer func() {
		if err := conv.Close(); err != nil {
			l.Debug("Leaving chat room", zap.Error(err))
		}
	}()

	for _, m := range history {
		h.dedupe.Remember(instance, m.ID)
	}
	if err := out.send(ctx, History(history, sess.ID)); err != nil {
		return
	}
	if !sock.Connected() {
		_ = out.send(ctx, StatusBanner(ConnectionEvent{ChatID: chatID}, true))
	}
	l.Info("Chat relay opened", zap.Int("history", len(history)))

	go h.readBrowser(ws, cancel, sock, chatID, sess, l)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info("Chat relay closed")
			return
		case <-ticker.C:
			if err := out.ping(); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			frag := h.fragmentFor(ev, sess, instance)
			if frag == nil {
				continue
			}
			if err := out.send(ctx, frag); err != nil {
				l.Debug("Browser went away", zap.Error(err))
				return
			}
		}
	}
}

func (h *Handler) fragmentFor(ev Event, sess models.Session, instance string) templ.Component {
	switch e := ev.(type) {
	case NewMessageEvent:
		if !h.dedupe.FirstSeen(instance, e.Message.ID) {
			return nil
		}
		return views.Group(Appended(e.Message, sess.ID), TypingIndicator("", true))
	case TypingEvent:
		if e.UserID == sess.ID {
			return nil
		}
		return TypingIndicator(e.UserName, true)
	case StopTypingEvent:
		if e.UserID == sess.ID {
			return nil
		}
		return TypingIndicator("", true)
	case ConnectionEvent:
		return StatusBanner(e, true)
	default:
		return nil
	}
}

// readBrowser forwards typing frames until the browser disconnects.
func (h *Handler) readBrowser(ws *websocket.Conn, cancel context.CancelFunc, sock *SocketClient, chatID string, sess models.Session, l *zap.Logger) {
	defer cancel()
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l.Warn("Chat relay read failed", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		var typing bool
		switch gjson.GetBytes(data, "event").String() {
		case EventTyping:
			typing = true
		case EventStopTyping:
		default:
			continue
		}
		if err := sock.Typing(chatID, sess, typing); err != nil && !errors.Is(err, ErrNotConnected) {
			l.Debug("Failed to forward typing", zap.Error(err))
		}
	}
}

// relayWriter serializes writes to the browser socket.
type relayWriter struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (r *relayWriter) send(ctx context.Context, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return r.ws.WriteMessage(websocket.TextMessage, buf.Bytes())
}

func (r *relayWriter) ping() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}
