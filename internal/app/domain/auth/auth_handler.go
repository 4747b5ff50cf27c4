// Package auth signs staff members in and out against the backend.
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/observability/metrics"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/validation"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

// SessionSaver persists and drops the session cookie.
type SessionSaver interface {
	Save(c *gin.Context, sess models.Session) error
	Clear(c *gin.Context)
}

type Handler struct {
	*handlers.BaseHandler
	service  Service
	sessions SessionSaver
}

func NewHandler(base *handlers.BaseHandler, service Service, sessions SessionSaver) *Handler {
	return &Handler{BaseHandler: base, service: service, sessions: sessions}
}

// ShowLogin renders the sign-in page, or sends signed-in staff home.
func (h *Handler) ShowLogin(c *gin.Context) {
	if sess := session.Current(c); sess.Authenticated() {
		c.Redirect(http.StatusFound, models.HomeFor(sess.Role))
		return
	}
	h.RenderPage(c, "Sign in", "", LoginPage(LoginForm{CSRFToken: csrf.Token(c.Request)}))
}

// Login validates the form, calls auth/login and stores the resulting session.
func (h *Handler) Login(c *gin.Context) {
	req := models.LoginRequest{Email: c.PostForm("email"), Password: c.PostForm("password")}
	form := LoginForm{Email: req.Email, CSRFToken: csrf.Token(c.Request)}

	if err := validation.Struct(req); err != nil {
		form.Error = err.Error()
		h.renderForm(c, http.StatusUnprocessableEntity, form)
		return
	}

	sess, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		metrics.IncAuth(c.Request.Context(), "login", false)
		status := http.StatusUnauthorized
		var fields validation.FieldErrors
		switch {
		case errors.As(err, &fields):
			status, form.Error = http.StatusUnprocessableEntity, err.Error()
		case errors.Is(err, models.ErrForbidden):
			status, form.Error = http.StatusForbidden, "This account cannot use the console."
		case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest):
			form.Error = "Invalid email or password."
		default:
			h.Logger.Error("Login failed", zap.Error(err))
			status, form.Error = http.StatusBadGateway, "Sign in is unavailable, please try again later."
		}
		h.renderForm(c, status, form)
		return
	}

	if err := h.sessions.Save(c, sess); err != nil {
		h.Logger.Error("Failed to store session", zap.Error(err))
		form.Error = "Could not start the session."
		h.renderForm(c, http.StatusInternalServerError, form)
		return
	}
	metrics.IncAuth(c.Request.Context(), "login", true)

	home := models.HomeFor(sess.Role)
	if middleware.IsHTMX(c) {
		c.Header("HX-Redirect", home)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, home)
}

// Logout revokes the token best-effort and always clears both cookies.
func (h *Handler) Logout(c *gin.Context) {
	sess := session.Current(c)
	if err := h.service.Logout(c.Request.Context(), sess); err != nil {
		h.Logger.Warn("Backend logout failed", zap.Int64("user_id", sess.ID), zap.Error(err))
	}
	h.sessions.Clear(c)
	metrics.IncAuth(c.Request.Context(), "logout", true)
	h.Logger.Info("User logged out", zap.Int64("user_id", sess.ID))

	if middleware.IsHTMX(c) {
		c.Header("HX-Redirect", "/login")
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

// renderForm re-renders the form in place for htmx, or the whole page otherwise.
func (h *Handler) renderForm(c *gin.Context, status int, form LoginForm) {
	if middleware.IsHTMX(c) {
		c.Header("HX-Retarget", "#login-form")
		c.Header("HX-Reswap", "outerHTML")
		h.Render(c, status, LoginFormView(form))
		return
	}
	layout := h.NewLayoutData(c, "Sign in", "", LoginPage(form))
	h.Render(c, status, views.LayoutPage(layout))
}
