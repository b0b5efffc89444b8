// Package main is the entry point for the assistant.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/telegram-assistant/internal/bot"
	"github.com/capitalize-ai/telegram-assistant/internal/config"
	"github.com/capitalize-ai/telegram-assistant/internal/events"
	"github.com/capitalize-ai/telegram-assistant/internal/handler"
	"github.com/capitalize-ai/telegram-assistant/internal/llm"
	"github.com/capitalize-ai/telegram-assistant/internal/middleware"
	"github.com/capitalize-ai/telegram-assistant/internal/store"
	"github.com/capitalize-ai/telegram-assistant/pkg/logger"
	"github.com/capitalize-ai/telegram-assistant/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting assistant")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "telegram-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Connect NATS event publishing if configured
	publisher, err := events.Connect(cfg.NATSURL, cfg.NATSToken, log)
	if err != nil {
		log.Warn("failed to connect to NATS, events disabled", zap.Error(err))
	}
	defer publisher.Close()

	// Initialize state owners and restore persisted state
	conversations := store.NewConversationStore(cfg.HistoryLimit)
	quota := store.NewQuotaTracker(cfg.DailyLimit, cfg.QuotaAmpleThreshold, cfg.QuotaLowThreshold)
	gateway := store.NewGateway(cfg.StateFile, cfg.SnapshotInterval, conversations, quota, log)
	gateway.Load()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		gateway.Run(ctx)
	}()

	// Initialize LLM client
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == string(llm.ProviderOpenAI) && cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	default:
		log.Error("no LLM API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Start the Telegram bot
	assistant, err := bot.New(bot.Options{
		Token:         cfg.TelegramToken,
		UpdateTimeout: cfg.TelegramUpdateTimeout,
		Model:         cfg.Model,
		MaxTokens:     cfg.MaxTokens,
	}, conversations, quota, llmClient, publisher, log)
	if err != nil {
		log.Error("failed to create telegram bot", zap.Error(err))
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		assistant.Run(ctx)
	}()

	// Initialize handlers
	statusHandler := handler.NewStatusHandler(conversations, quota)
	adminHandler := handler.NewAdminHandler(conversations, quota, gateway, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public surface
	r.Get("/", statusHandler.Dashboard)
	r.Get("/health", statusHandler.Health)
	r.Get("/status", statusHandler.Status)
	r.Handle("/metrics", promhttp.Handler())

	// Admin API with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RequireScope(middleware.ScopeAdmin))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/quota", adminHandler.Quota)
		r.Get("/chats", adminHandler.Chats)
		r.Delete("/chats/{id}/history", adminHandler.ClearHistory)
		r.Post("/snapshot", adminHandler.ForceSnapshot)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// Stop the bot and flush a final snapshot before exiting.
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("stopped")
}
