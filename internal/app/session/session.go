// Package session persists the logged-in staff member between requests.
package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
)

const (
	CookieName   = "mixdesk_session"
	MirrorCookie = "user"
	userKey      = "user"
	contextKey   = "session"
	maxAge       = 7 * 24 * 60 * 60
)

// NewCookieStore builds the encrypted cookie store backing gin-contrib/sessions.
func NewCookieStore(cfg config.SessionConfig) sessions.Store {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// Middleware registers the cookie session on the router.
func Middleware(cfg config.SessionConfig) gin.HandlerFunc {
	return sessions.Sessions(CookieName, NewCookieStore(cfg))
}

// Store reads and writes models.Session in the cookie session.
type Store struct {
	logger *zap.Logger
	secure bool
	now    func() time.Time
}

func NewStore(cfg config.SessionConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger, secure: cfg.CookieSecure, now: time.Now}
}

// Load returns the session of the current request or the zero session. An undecodable or
// expired session is cleared.
func (s *Store) Load(c *gin.Context) models.Session {
	if v, ok := c.Get(contextKey); ok {
		if sess, ok := v.(models.Session); ok {
			return sess
		}
	}

	raw, ok := sessions.Default(c).Get(userKey).(string)
	if !ok || raw == "" {
		return models.Session{}
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.logger.Warn("Discarding undecodable session", zap.Error(err))
		s.Clear(c)
		return models.Session{}
	}
	if !sess.Authenticated() {
		s.Clear(c)
		return models.Session{}
	}
	if Expired(sess.Token, s.now()) {
		s.logger.Info("Session token expired", zap.Int64("user_id", sess.ID))
		s.Clear(c)
		return models.Session{}
	}

	c.Set(contextKey, sess)
	return sess
}

// Save stores sess and writes the mirror cookie.
func (s *Store) Save(c *gin.Context, sess models.Session) error {
	if !sess.Authenticated() {
		return errors.New("refusing to store an unauthenticated session")
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	store := sessions.Default(c)
	store.Set(userKey, string(b))
	if err := store.Save(); err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(MirrorCookie, mirrorValue(sess), maxAge, "/", "", s.secure, false)
	c.Set(contextKey, sess)
	return nil
}

// Clear removes both the session and the mirror cookie.
func (s *Store) Clear(c *gin.Context) {
	store := sessions.Default(c)
	store.Delete(userKey)
	store.Clear()
	store.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := store.Save(); err != nil {
		s.logger.Warn("Failed to clear session cookie", zap.Error(err))
	}
	c.SetCookie(MirrorCookie, "", -1, "/", "", s.secure, false)
	c.Set(contextKey, models.Session{})
}

// Current returns the session LoadSession put on the context, without touching cookies.
func Current(c *gin.Context) models.Session {
	if v, ok := c.Get(contextKey); ok {
		if sess, ok := v.(models.Session); ok {
			return sess
		}
	}
	return models.Session{}
}

// Expired reports whether token is a JWT whose exp claim is in the past. Opaque tokens
// never expire on this side; the backend's 401 is authoritative for them.
func Expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// mirrorValue is the non-secret part of the session exposed to scripts: id and role.
func mirrorValue(sess models.Session) string {
	return strconv.FormatInt(sess.ID, 10) + ":" + sess.Role.String()
}

// Set places sess on the request context for the rest of the chain.
func Set(c *gin.Context, sess models.Session) {
	c.Set(contextKey, sess)
}
