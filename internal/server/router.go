package server

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/middleware"
	"github.com/FACorreiaa/mixdesk-admin/internal/routes"
)

// SetupRouter configures the Gin engine with the middleware chain and every route.
func SetupRouter(s *Server) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(ginzap.GinzapWithConfig(s.logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
		SkipPaths:  []string{"/health"},
	}))
	r.Use(ginzap.RecoveryWithZap(s.logger, true))
	r.Use(middleware.OTELGinMiddleware(serviceName))
	r.Use(middleware.HTTPMetrics())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.SecurityMiddleware())

	if err := routes.Setup(r, routes.Dependencies{
		Config: s.cfg,
		Logger: s.logger,
		DB:     s.dbPool,
		Hub:    s.hub,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// zapContextFunc adds request and trace ids to the access log. Bodies are never logged:
// they carry passwords and uploads.
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get("X-Request-Id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		if c.GetHeader("HX-Request") == "true" {
			fields = append(fields, zap.Bool("htmx", true))
		}
		return fields
	}
}
