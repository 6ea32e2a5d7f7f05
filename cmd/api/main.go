// Package main is the entry point for the bridge server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/itsm-tools/intercom-bridge/internal/config"
	"github.com/itsm-tools/intercom-bridge/internal/events"
	"github.com/itsm-tools/intercom-bridge/internal/handler"
	"github.com/itsm-tools/intercom-bridge/internal/intercom"
	"github.com/itsm-tools/intercom-bridge/internal/itsm"
	"github.com/itsm-tools/intercom-bridge/internal/middleware"
	"github.com/itsm-tools/intercom-bridge/internal/service"
	"github.com/itsm-tools/intercom-bridge/pkg/logger"
	"github.com/itsm-tools/intercom-bridge/pkg/tracing"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting bridge server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "intercom-bridge", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Event publishing is optional; without NATS the bridge still serves
	// both hook endpoints.
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer publisher.Close()
	}

	var store *itsm.MemoryStore
	if cfg.DatamodelFile != "" {
		store, err = itsm.LoadDatamodel(cfg.DatamodelFile)
		if err != nil {
			log.Error("failed to load datamodel", zap.Error(err))
			os.Exit(1)
		}
	} else {
		store = itsm.NewMemoryStore(itsm.DefaultDatamodel()...)
	}

	var notifier service.Notifier
	if cfg.AccessToken != "" {
		client, err := intercom.NewClient(cfg.APIBaseURL, cfg.AccessToken)
		if err != nil {
			log.Error("failed to create API client", zap.Error(err))
			os.Exit(1)
		}
		notifier = client
	} else {
		log.Warn("no access token configured, outbound notes disabled")
	}

	tickets := service.NewTicketService(store, cfg, notifier, publisher, log)
	guard := handler.NewGuard(cfg.ClientSecret, log)

	healthHandler := handler.NewHealthHandler(publisher, cfg.NATSURL != "")
	canvasHandler := handler.NewCanvasKitHandler(guard, tickets, cfg, log)
	webhookHandler := handler.NewWebhookHandler(guard, tickets, log)
	opsHandler := handler.NewOpsHandler(cfg)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Inbound hooks: signature-authenticated by the handlers themselves
	r.Route("/hooks", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Use(middleware.MaxBodyBytes(2 << 20))
		r.Post("/canvas", canvasHandler.Handle)
		r.Post("/webhook", webhookHandler.Handle)
	})

	// Operator API
	r.Route("/api/v1/ops", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*", "http://*"},
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Correlation-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(middleware.Auth(cfg.OpsJWTSecret))
		r.Use(middleware.RequireRole(cfg.OpsAllowedRoles))
		r.Get("/config", opsHandler.Config)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
