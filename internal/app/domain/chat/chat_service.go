package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

// Backend is the part of backend.Client the chat pages use.
type Backend interface {
	Get(ctx context.Context, sess models.Session, path string, query url.Values) ([]byte, error)
	SendMultipart(ctx context.Context, sess models.Session, method, path string, form backend.Multipart) ([]byte, error)
}

var _ Backend = (*backend.Client)(nil)

var _ HistoryLoader = (*Service)(nil)

// Attachment is a file sent with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Outgoing is what the staff member typed: text, one file, or both.
type Outgoing struct {
	Text string
	File *Attachment
}

func (o Outgoing) Empty() bool {
	return strings.TrimSpace(o.Text) == "" && o.File == nil
}

type Service struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(b Backend, logger *zap.Logger) *Service {
	return &Service{backend: b, logger: logger}
}

// Conversations lists the chats visible to sess, most recent first as sent by the backend.
func (s *Service) Conversations(ctx context.Context, sess models.Session) ([]models.Conversation, error) {
	ctx, span := otel.Tracer("mixdesk-admin").Start(ctx, "ChatService.Conversations",
		trace.WithAttributes(attribute.Int64("user.id", sess.ID)))
	defer span.End()

	body, err := s.backend.Get(ctx, sess, "chats", nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list chats")
		return nil, err
	}
	convs, err := parseConversations(body, sess.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("chats.count", len(convs)))
	return convs, nil
}

// History loads the stored messages of a chat, oldest first.
func (s *Service) History(ctx context.Context, sess models.Session, chatID string) ([]models.ChatMessage, error) {
	ctx, span := otel.Tracer("mixdesk-admin").Start(ctx, "ChatService.History",
		trace.WithAttributes(attribute.String("chat.id", chatID)))
	defer span.End()

	body, err := s.backend.Get(ctx, sess, "chats/"+url.PathEscape(chatID)+"/messages", nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load history")
		return nil, err
	}
	items, ok := findArray(gjson.ParseBytes(body), "data.messages", "data.data", "messages", "data")
	if !ok {
		return nil, fmt.Errorf("history response for chat %s has no messages", chatID)
	}
	msgs := make([]models.ChatMessage, 0, len(items))
	for _, it := range items {
		m := messageFrom(it)
		if m.ChatID == "" {
			m.ChatID = chatID
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Send stores a message through REST and returns it as confirmed by the backend.
func (s *Service) Send(ctx context.Context, sess models.Session, chatID string, out Outgoing) (models.ChatMessage, error) {
	ctx, span := otel.Tracer("mixdesk-admin").Start(ctx, "ChatService.Send",
		trace.WithAttributes(attribute.String("chat.id", chatID), attribute.Bool("chat.file", out.File != nil)))
	defer span.End()

	if out.Empty() {
		return models.ChatMessage{}, fmt.Errorf("empty message: %w", models.ErrValidation)
	}

	form := backend.Multipart{Fields: map[string]string{}}
	if text := strings.TrimSpace(out.Text); text != "" {
		form.Fields["message"] = text
	}
	form.Fields["message_type"] = "text"
	if out.File != nil {
		form.Fields["message_type"] = "file"
		form.Files = append(form.Files, backend.FilePart{
			Field:       "file",
			Filename:    out.File.Filename,
			ContentType: out.File.ContentType,
			Content:     out.File.Content,
		})
	}

	body, err := s.backend.SendMultipart(ctx, sess, http.MethodPost, "chats/"+url.PathEscape(chatID)+"/messages", form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send message")
		s.logger.Warn("Failed to send chat message", zap.String("chat_id", chatID), zap.Error(err))
		return models.ChatMessage{}, err
	}

	msg := messageFrom(findObject(gjson.ParseBytes(body), "data.message", "data", "message"))
	if msg.ChatID == "" {
		msg.ChatID = chatID
	}
	if msg.SenderID == 0 {
		msg.SenderID = sess.ID
	}
	if msg.SenderName == "" {
		msg.SenderName = sess.Name
	}
	if msg.Message == "" {
		msg.Message = strings.TrimSpace(out.Text)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	span.SetStatus(codes.Ok, "sent")
	return msg, nil
}

// parseConversations accepts camel and snake case entries. The counterpart is whichever
// participant is not me.
func parseConversations(body []byte, me int64) ([]models.Conversation, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("chats response is not valid JSON")
	}
	items, ok := findArray(gjson.ParseBytes(body), "data.chats", "data.data", "chats", "data")
	if !ok {
		return nil, fmt.Errorf("chats response has no list")
	}
	convs := make([]models.Conversation, 0, len(items))
	for _, it := range items {
		c := models.Conversation{
			ChatID:      firstOf(it, "chatId", "chat_id", "id").String(),
			LastMessage: firstOf(it, "lastMessage.message", "last_message.message", "lastMessage", "last_message").String(),
			Unread:      int(firstOf(it, "unread", "unreadCount", "unread_count").Int()),
		}
		if c.ChatID == "" {
			continue
		}
		if ts := firstOf(it, "updatedAt", "updated_at").String(); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				c.UpdatedAt = t
			}
		}
		other := firstOf(it, "counterpart", "user", "customer")
		if !other.Exists() {
			it.Get("participants").ForEach(func(_, p gjson.Result) bool {
				if p.Get("id").Int() != me {
					other = p
					return false
				}
				return true
			})
		}
		c.CounterpartID = other.Get("id").Int()
		c.CounterpartName = other.Get("name").String()
		if c.CounterpartName == "" {
			c.CounterpartName = "Chat " + c.ChatID
		}
		convs = append(convs, c)
	}
	return convs, nil
}

func findArray(root gjson.Result, paths ...string) ([]gjson.Result, bool) {
	if root.IsArray() {
		return root.Array(), true
	}
	for _, p := range paths {
		if r := root.Get(p); r.IsArray() {
			return r.Array(), true
		}
	}
	return nil, false
}

func findObject(root gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.IsObject() {
			return r
		}
	}
	return root
}
