package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/renderer"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

const triggerKey = "hx-trigger-events"

// SessionClearer drops the session of a request.
type SessionClearer interface {
	Clear(c *gin.Context)
}

// BaseHandler is embedded by every feature handler: page shell, toasts and the shared
// reaction to backend errors.
type BaseHandler struct {
	Logger   *zap.Logger
	Sessions SessionClearer
}

func NewBaseHandler(logger *zap.Logger, sessions SessionClearer) *BaseHandler {
	return &BaseHandler{Logger: logger, Sessions: sessions}
}

func (h *BaseHandler) NewLayoutData(c *gin.Context, title, activeNav string, content templ.Component) models.LayoutTempl {
	sess := session.Current(c)
	return models.LayoutTempl{
		Title:     title,
		Session:   sess,
		Nav:       models.NavFor(sess.Role),
		ActiveNav: activeNav,
		CSRFToken: csrf.Token(c.Request),
		Content:   content,
	}
}

func (h *BaseHandler) Render(c *gin.Context, status int, component templ.Component) {
	c.Render(status, renderer.New(c.Request.Context(), -1, component))
}

// RenderPage renders the full layout, or only content when htmx asks for a fragment.
func (h *BaseHandler) RenderPage(c *gin.Context, title, activeNav string, content templ.Component) {
	if middleware.IsHTMX(c) && c.GetHeader("HX-Boosted") != "true" {
		h.Render(c, http.StatusOK, content)
		return
	}
	h.Render(c, http.StatusOK, views.LayoutPage(h.NewLayoutData(c, title, activeNav, content)))
}

// Trigger adds an event to the HX-Trigger response header. Several events can be set
// during one request; the header always carries all of them.
func (h *BaseHandler) Trigger(c *gin.Context, event string, detail any) {
	events, _ := c.Get(triggerKey)
	m, ok := events.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	m[event] = detail
	c.Set(triggerKey, m)

	b, err := json.Marshal(m)
	if err != nil {
		h.Logger.Error("Failed to encode HX-Trigger", zap.Error(err))
		return
	}
	c.Header("HX-Trigger", string(b))
}

func (h *BaseHandler) Toast(c *gin.Context, level models.ToastLevel, message string) {
	h.Trigger(c, "toast", models.Toast{Level: level, Message: message})
}

// CloseModal tells the browser to empty #modal.
func (h *BaseHandler) CloseModal(c *gin.Context) {
	h.Trigger(c, "closeModal", true)
}

// NoSwap answers an htmx request without touching the page.
func (h *BaseHandler) NoSwap(c *gin.Context, status int) {
	c.Header("HX-Reswap", "none")
	c.Status(status)
}

// HandleUnauthorized clears the session and sends the browser to the login page when err
// is a 401 from the backend. It reports whether it handled the request.
func (h *BaseHandler) HandleUnauthorized(c *gin.Context, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}
	sess := session.Current(c)
	h.Logger.Info("Backend rejected session, logging out", zap.Int64("user_id", sess.ID))
	if h.Sessions != nil {
		h.Sessions.Clear(c)
	}
	middleware.HandleAuthRedirect(c, "/login")
	return true
}
