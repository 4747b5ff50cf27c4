package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/observability/metrics"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/session"
)

// SessionLoader resolves the session of a request.
type SessionLoader interface {
	Load(c *gin.Context) models.Session
}

// CORSMiddleware handles CORS headers
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, accept, origin, Cache-Control, X-Requested-With, HX-Request, HX-Target, HX-Current-URL, HX-Trigger")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// htmx and its ws extension come from unpkg; images and audio come from the backend's storage
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
			"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
			"font-src 'self' https://fonts.gstatic.com; " +
			"img-src 'self' data: https: blob:; " +
			"media-src 'self' https: blob:; " +
			"connect-src 'self' ws: wss:"
		c.Writer.Header().Set("Content-Security-Policy", csp)

		c.Next()
	}
}

// OTELGinMiddleware returns the OpenTelemetry middleware for Gin
func OTELGinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// HTTPMetrics records request counters and latencies keyed by the matched route.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// LoadSession resolves the cookie session once per request; handlers read it with
// session.Current.
func LoadSession(loader SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		loader.Load(c)
		c.Next()
	}
}

// RequireRole lets the request through only when the session role is one of allowed.
// Unauthenticated requests go to /login, authenticated ones with the wrong role go to /.
func RequireRole(logger *zap.Logger, allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.Current(c)
		if !sess.Authenticated() {
			HandleAuthRedirect(c, "/login")
			return
		}
		if !sess.Role.In(allowed...) {
			logger.Info("Role not allowed on route",
				zap.String("path", c.FullPath()),
				zap.String("role", sess.Role.String()),
				zap.Int64("user_id", sess.ID))
			HandleAuthRedirect(c, "/")
			return
		}
		c.Next()
	}
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// HandleAuthRedirect handles redirects for both regular and HTMX requests
func HandleAuthRedirect(c *gin.Context, redirectURL string) {
	if IsHTMX(c) {
		// For HTMX requests, use HX-Redirect header to trigger client-side redirect
		c.Header("HX-Redirect", redirectURL)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
	c.Abort()
}
