package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/backend"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/audit"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/auth"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/chat"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/dashboard"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/gallery"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/resources"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/handlers"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/renderer"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/views"
	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
)

// Dependencies are the process-wide pieces the routes are built from.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger
	// DB is nil when the activity log is kept in the log only.
	DB  *pgxpool.Pool
	Hub *chat.Hub
}

type AppHandlers struct {
	Base      *handlers.BaseHandler
	Sessions  *session.Store
	Auth      *auth.Handler
	Dashboard *dashboard.Handler
	Resources *resources.Handler
	Gallery   *gallery.Handler
	Chat      *chat.Handler
	Activity  *audit.Handler
}

// Setup builds every handler and mounts its routes on r.
func Setup(r *gin.Engine, deps Dependencies) error {
	r.HTMLRender = &renderer.HTMLTemplRenderer{FallbackHTMLRenderer: r.HTMLRender}

	h, err := setupDependencies(deps)
	if err != nil {
		return err
	}
	setupRouter(r, h, deps.Config)
	return nil
}

func setupDependencies(deps Dependencies) (*AppHandlers, error) {
	cfg, log := deps.Config, deps.Logger

	store := session.NewStore(cfg.Session, log)
	base := handlers.NewBaseHandler(log, store)
	client := backend.NewClient(cfg.Backend, log.Named("backend"))

	var recorder audit.Recorder = audit.NewLogRecorder(log.Named("activity"))
	if deps.DB != nil {
		recorder = audit.NewService(audit.NewRepository(deps.DB, log), log)
	}

	registry := resources.NewRegistry()
	resourceService := resources.NewService(client, registry, resources.NewOptionsCache(), cfg.Backend.PerPage, log)

	galleryHandler, err := gallery.NewHandler(base, resourceService, registry, recorder)
	if err != nil {
		return nil, err
	}

	hub := deps.Hub
	if hub == nil {
		hub = chat.NewHub(cfg.Backend.SocketURL, cfg.Chat.ReconnectMaxElapsed, log.Named("chat"))
	}

	return &AppHandlers{
		Base:      base,
		Sessions:  store,
		Auth:      auth.NewHandler(base, auth.NewService(client, log), store),
		Dashboard: dashboard.NewHandler(base, dashboard.NewService(resourceService, registry, log)),
		Resources: resources.NewHandler(base, resourceService, registry, nil, recorder),
		Gallery:   galleryHandler,
		Chat:      chat.NewHandler(base, chat.NewService(client, log), hub, chat.NewDeduper(cfg.Chat.DedupeTTL)),
		Activity:  audit.NewHandler(base, recorder),
	}, nil
}

func setupRouter(r *gin.Engine, h *AppHandlers, cfg *config.Config) {
	r.Use(session.Middleware(cfg.Session))
	r.Use(middleware.LoadSession(h.Sessions))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Home goes wherever the role lands
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, models.HomeFor(session.Current(c).Role))
	})

	r.GET("/login", h.Auth.ShowLogin)
	r.POST("/login", h.Auth.Login)
	r.POST("/logout", h.Auth.Logout)

	console := r.Group("/")
	h.Dashboard.Register(console)
	h.Gallery.Register(console)
	h.Resources.Register(console)
	h.Chat.Register(console)
	console.GET("/activity", middleware.RequireRole(h.Base.Logger, models.RoleAdmin), h.Activity.ShowActivity)

	r.NoRoute(func(c *gin.Context) {
		if middleware.IsHTMX(c) {
			// an empty 404 keeps htmx from swapping gin's plain-text fallback body
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		page := views.LayoutPage(h.Base.NewLayoutData(c, "Not found", "", views.NotFound()))
		h.Base.Render(c, http.StatusNotFound, page)
	})
}
