package tracer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Options configures the providers.
type Options struct {
	ServiceName  string
	Version      string
	OTLPEndpoint string // host:port of the collector, empty disables trace export
	MetricsAddr  string
	Logger       *zap.Logger
}

// InitOtelProviders installs the global tracer and meter providers and starts the
// /metrics listener. The returned func shuts all three down.
func InitOtelProviders(opts Options) (func(context.Context) error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.Version),
	)

	tp := newTracerProvider(res, opts.OTLPEndpoint, logger)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(mp)

	metricsServer := startMetricsServer(opts.MetricsAddr, logger)

	return func(ctx context.Context) error {
		return errors.Join(
			wrapShutdown("metrics server", metricsServer.Shutdown(ctx)),
			wrapShutdown("meter provider", mp.Shutdown(ctx)),
			wrapShutdown("tracer provider", tp.Shutdown(ctx)),
		)
	}, nil
}

// newTracerProvider falls back to an exporter-less provider when no collector is configured
// or the exporter cannot be built; spans are still created for log correlation.
func newTracerProvider(res *resource.Resource, endpoint string, logger *zap.Logger) *sdktrace.TracerProvider {
	if endpoint == "" {
		logger.Info("Trace export disabled")
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}
	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("Failed to create OTLP trace exporter, traces will not be exported", zap.Error(err))
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}
	logger.Info("Exporting traces", zap.String("endpoint", endpoint))
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
}

func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}

func wrapShutdown(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s shutdown: %w", what, err)
}
