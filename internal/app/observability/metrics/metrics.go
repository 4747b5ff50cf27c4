package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	AuthRequestsTotal      metric.Int64Counter
	BackendRequestsTotal   metric.Int64Counter
	BackendRequestDuration metric.Float64Histogram
	ChatSocketReconnects   metric.Int64Counter
	ChatConnectionsGauge   metric.Int64UpDownCounter
	AuditWriteErrorsTotal  metric.Int64Counter
	TemplateRenderDuration metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("mixdesk-admin")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of login and logout attempts"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.BackendRequestsTotal, err = meter.Int64Counter(
			"backend_requests_total",
			metric.WithDescription("Total number of calls made to the REST backend"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create backend_requests_total: %v", err)
		}

		m.BackendRequestDuration, err = meter.Float64Histogram(
			"backend_request_duration_seconds",
			metric.WithDescription("Duration of REST backend calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create backend_request_duration_seconds: %v", err)
		}

		m.ChatSocketReconnects, err = meter.Int64Counter(
			"chat_socket_reconnects_total",
			metric.WithDescription("Total number of chat socket redials"),
			metric.WithUnit("{reconnect}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_socket_reconnects_total: %v", err)
		}

		m.ChatConnectionsGauge, err = meter.Int64UpDownCounter(
			"chat_browser_connections",
			metric.WithDescription("Current number of browser chat connections"),
			metric.WithUnit("{connection}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_browser_connections: %v", err)
		}

		m.AuditWriteErrorsTotal, err = meter.Int64Counter(
			"audit_write_errors_total",
			metric.WithDescription("Total number of activity log writes that failed"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create audit_write_errors_total: %v", err)
		}

		m.TemplateRenderDuration, err = meter.Float64Histogram(
			"template_render_duration_seconds",
			metric.WithDescription("Duration of component rendering in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create template_render_duration_seconds: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// Enabled reports whether InitAppMetrics ran. Tests never call it.
func Enabled() bool {
	return appMetrics != nil
}

// ObserveBackendCall records one REST backend round trip.
func ObserveBackendCall(ctx context.Context, method, route, status string, d time.Duration) {
	if appMetrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", status),
	)
	appMetrics.BackendRequestsTotal.Add(ctx, 1, attrs)
	appMetrics.BackendRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// ObserveHTTPRequest records one request served by the console.
func ObserveHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if appMetrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	appMetrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
	appMetrics.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// IncAuth counts a login or logout attempt.
func IncAuth(ctx context.Context, action string, ok bool) {
	if appMetrics == nil {
		return
	}
	appMetrics.AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("success", ok),
	))
}

// IncReconnect counts a chat socket redial.
func IncReconnect(ctx context.Context) {
	if appMetrics == nil {
		return
	}
	appMetrics.ChatSocketReconnects.Add(ctx, 1)
}

// AddChatConnections moves the browser connection gauge by delta.
func AddChatConnections(ctx context.Context, delta int64) {
	if appMetrics == nil {
		return
	}
	appMetrics.ChatConnectionsGauge.Add(ctx, delta)
}

// IncAuditError counts a failed activity log write.
func IncAuditError(ctx context.Context) {
	if appMetrics == nil {
		return
	}
	appMetrics.AuditWriteErrorsTotal.Add(ctx, 1)
}

// ObserveRender records how long a component took to render.
func ObserveRender(ctx context.Context, d time.Duration) {
	if appMetrics == nil {
		return
	}
	appMetrics.TemplateRenderDuration.Record(ctx, d.Seconds())
}
