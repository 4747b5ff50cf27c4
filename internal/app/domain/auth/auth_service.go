package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/validation"
)

// Backend is the part of backend.Client the login flow needs.
type Backend interface {
	SendJSON(ctx context.Context, sess models.Session, method, path string, payload any) ([]byte, error)
}

var _ Backend = (*backend.Client)(nil)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (models.Session, error)
	Logout(ctx context.Context, sess models.Session) error
}

type ServiceImpl struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(b Backend, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{backend: b, logger: logger}
}

// Login exchanges credentials for a session. Accounts without a console role are refused.
func (s *ServiceImpl) Login(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", req.Email))

	ctx, span := otel.Tracer("mixdesk-admin").Start(ctx, "AuthService.Login", trace.WithAttributes(
		attribute.String("email", req.Email),
	))
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		span.SetStatus(codes.Error, "invalid credentials payload")
		return models.Session{}, err
	}

	body, err := s.backend.SendJSON(ctx, models.Session{}, http.MethodPost, "auth/login", req)
	if err != nil {
		l.Warn("Backend rejected login", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return models.Session{}, err
	}

	sess, err := parseLogin(body)
	if err != nil {
		l.Error("Unexpected login response", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "login response")
		return models.Session{}, err
	}
	if !sess.Authenticated() {
		l.Warn("Login for account without console role")
		span.SetStatus(codes.Error, "role not allowed")
		return models.Session{}, fmt.Errorf("account has no console role: %w", models.ErrForbidden)
	}

	span.SetAttributes(attribute.Int64("user.id", sess.ID), attribute.String("user.role", sess.Role.String()))
	span.SetStatus(codes.Ok, "logged in")
	l.Info("Login successful", zap.Int64("user_id", sess.ID), zap.String("role", sess.Role.String()))
	return sess, nil
}

// Logout tells the backend to revoke the token. Callers clear the local session whatever
// the outcome.
func (s *ServiceImpl) Logout(ctx context.Context, sess models.Session) error {
	if sess.Token == "" {
		return nil
	}
	ctx, span := otel.Tracer("mixdesk-admin").Start(ctx, "AuthService.Logout",
		trace.WithAttributes(attribute.Int64("user.id", sess.ID)))
	defer span.End()

	if _, err := s.backend.SendJSON(ctx, sess, http.MethodPost, "auth/logout", nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "logout failed")
		return fmt.Errorf("backend logout: %w", err)
	}
	return nil
}

// parseLogin reads the token and user out of the login response. The backend has shipped
// both {token, user} and {data: {access_token, user}}.
func parseLogin(body []byte) (models.Session, error) {
	if !gjson.ValidBytes(body) {
		return models.Session{}, fmt.Errorf("login response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if d := root.Get("data"); d.IsObject() {
		root = d
	}

	token := first(root, "token", "access_token", "accessToken")
	if token.String() == "" {
		return models.Session{}, fmt.Errorf("login response has no token")
	}
	user := root.Get("user")
	if !user.IsObject() {
		user = root
	}

	sess := models.Session{
		Token: token.String(),
		ID:    user.Get("id").Int(),
		Name:  user.Get("name").String(),
		Email: user.Get("email").String(),
		Role:  models.ParseRole(first(user, "role.name", "role", "type").String()),
	}
	user.Get("permissions").ForEach(func(_, v gjson.Result) bool {
		name := v.String()
		if v.IsObject() {
			name = v.Get("name").String()
		}
		if name != "" {
			sess.Permissions = append(sess.Permissions, name)
		}
		return true
	})
	return sess, nil
}

func first(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v
		}
	}
	return gjson.Result{}
}
