package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
	"github.com/FACorreiaa/mixdesk-admin/internal/server"
	"github.com/FACorreiaa/mixdesk-admin/pkg/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), zap.String("service", "mixdesk-admin"), zap.String("version", version)); err != nil {
		return err
	}
	l := logger.Log
	defer func() { _ = l.Sync() }()

	otelShutdown, err := server.InitObservability(cfg, version, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			l.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, l)
	if err != nil {
		return err
	}

	router, err := server.SetupRouter(srv)
	if err != nil {
		srv.Close()
		return err
	}
	if err := server.SetupAssets(router); err != nil {
		l.Error("Failed to setup assets", zap.Error(err))
		srv.Close()
		return err
	}
	srv.SetRouter(router)

	server.StartPprofServer(cfg.PprofAddr, l)

	httpServer := srv.HTTPServer()

	done := make(chan struct{})
	go server.GracefulShutdown(httpServer, srv, l, done)

	l.Info("Server starting",
		zap.String("port", cfg.ServerPort),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Bool("activity_db", cfg.AuditEnabled))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error", zap.Error(err))
		srv.Close()
		return err
	}

	<-done
	l.Info("Graceful shutdown complete")
	return nil
}
