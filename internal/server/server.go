package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/domain/chat"
	database "github.com/FACorreiaa/mixdesk-admin/internal/db"
	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
)

const serviceName = "mixdesk-admin"

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	dbPool *pgxpool.Pool
	hub    *chat.Hub
	router http.Handler
}

// New creates a Server. Postgres is only opened when the activity log is enabled.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		hub:    chat.NewHub(cfg.Backend.SocketURL, cfg.Chat.ReconnectMaxElapsed, logger.Named("chat")),
	}

	if cfg.AuditEnabled {
		dbPool, err := s.setupDatabase(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to setup database: %w", err)
		}
		s.dbPool = dbPool
	} else {
		logger.Info("Activity log database disabled, entries go to the log only")
	}

	return s, nil
}

// setupDatabase initializes the database connection and runs migrations
func (s *Server) setupDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	s.logger.Info("Setting up database connection and migrations")

	dbConfig, err := database.NewDatabaseConfig(s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database configuration: %w", err)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, s.cfg.Repositories.Postgres, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	if !database.WaitForDB(ctx, pool, s.logger) {
		pool.Close()
		return nil, fmt.Errorf("database not reachable")
	}
	s.logger.Info("Connected to Postgres",
		zap.String("host", s.cfg.Repositories.Postgres.Host),
		zap.String("port", s.cfg.Repositories.Postgres.Port),
		zap.String("database", s.cfg.Repositories.Postgres.DB))

	if err = database.RunMigrations(dbConfig.ConnectionURL, s.logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.logger.Info("Database setup completed successfully")
	return pool, nil
}

// HTTPServer wraps the router with CSRF protection. WriteTimeout is left at zero so the
// chat relay sockets are not cut; handlers bound their own writes.
func (s *Server) HTTPServer() *http.Server {
	protect := csrf.Protect([]byte(s.cfg.Session.CSRFKey),
		csrf.Secure(s.cfg.Session.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Warn("CSRF check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
			http.Error(w, "Forbidden - invalid CSRF token", http.StatusForbidden)
		})),
	)

	handler := protect(s.router)
	if !s.cfg.Session.CookieSecure {
		// local development runs over plain http
		inner := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inner.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}

	return &http.Server{
		Addr:              ":" + s.cfg.ServerPort,
		Handler:           handler,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// Close closes all server resources
func (s *Server) Close() {
	s.hub.Close()
	if s.dbPool != nil {
		s.dbPool.Close()
	}
}
