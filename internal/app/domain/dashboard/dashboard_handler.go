package dashboard

import (
	"net/url"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
)

type Handler struct {
	*handlers.BaseHandler
	service Service
}

func NewHandler(base *handlers.BaseHandler, service Service) *Handler {
	return &Handler{BaseHandler: base, service: service}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/dashboard", middleware.RequireRole(h.Logger, models.RoleAdmin), h.ShowDashboard)
}

func (h *Handler) ShowDashboard(c *gin.Context) {
	tiles, err := h.service.Tiles(c.Request.Context(), session.Current(c))
	if err != nil {
		if h.HandleUnauthorized(c, err) {
			return
		}
		h.Logger.Error("Dashboard failed", zap.Error(err))
		h.RenderPage(c, "Dashboard", "Dashboard", views.ErrorBanner("Could not load the dashboard."))
		return
	}
	h.RenderPage(c, "Dashboard", "Dashboard", DashboardPage(tiles))
}

func DashboardPage(tiles []Tile) templ.Component {
	return views.Func(func(h *views.Writer) {
		h.Raw(`<section class="dashboard"><h1 class="mb-6 text-2xl font-semibold">Dashboard</h1>`)
		h.Raw(`<div class="grid grid-cols-1 gap-4 sm:grid-cols-2 lg:grid-cols-3">`)
		for _, t := range tiles {
			href := "/" + t.Slug
			if t.Filter != "" && t.Filter != models.FilterAll {
				href += "?" + url.Values{"filter": {t.Filter}}.Encode()
			}
			h.Component(views.Card(t.Title, t.Display(), href))
		}
		h.Raw(`</div></section>`)
	})
}
