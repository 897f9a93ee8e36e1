// Package main is the entry point for the chat API server.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/priyansh203/spur-chatbot/internal/config"
	"github.com/priyansh203/spur-chatbot/internal/events"
	"github.com/priyansh203/spur-chatbot/internal/handler"
	"github.com/priyansh203/spur-chatbot/internal/llm"
	"github.com/priyansh203/spur-chatbot/internal/middleware"
	"github.com/priyansh203/spur-chatbot/internal/service"
	"github.com/priyansh203/spur-chatbot/internal/store"
	"github.com/priyansh203/spur-chatbot/internal/store/postgres"
	"github.com/priyansh203/spur-chatbot/internal/store/sqlite"
	"github.com/priyansh203/spur-chatbot/pkg/logger"
	"github.com/priyansh203/spur-chatbot/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting chat API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "spur-chatbot", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the conversation store. The driver is chosen once here; the
	// rest of the code only sees the store.Store interface.
	st, err := openStore(cfg)
	if err != nil {
		log.Error("failed to open conversation store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Initialize LLM client. The server still serves (with fallback
	// replies) when no provider key is configured.
	var llmClient llm.Client
	switch llm.Provider(cfg.LLMProvider) {
	case llm.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			log.Warn("ANTHROPIC_API_KEY not set, replies will use fallbacks")
		} else if llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey); err != nil {
			log.Warn("failed to create Anthropic client", zap.Error(err))
		}
	default:
		if cfg.OpenAIAPIKey == "" {
			log.Warn("OPENAI_API_KEY not set, replies will use fallbacks")
		} else if llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey); err != nil {
			log.Warn("failed to create OpenAI client", zap.Error(err))
		}
	}

	// Optional turn event publishing.
	var turnEvents service.TurnPublisher
	if cfg.NATSURL != "" {
		publisher, err := events.Connect(cfg.NATSURL, log)
		if err != nil {
			log.Warn("failed to connect to NATS, turn events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			turnEvents = publisher
		}
	}

	// Initialize services
	historySvc := service.NewHistoryAssembler(st)
	replySvc := service.NewReplyGenerator(llmClient, cfg.LLMModel, cfg.HistoryLimit, log)
	chatSvc := service.NewChatService(st, historySvc, replySvc, turnEvents, log)

	// Initialize handlers
	chatHandler := handler.NewChatHandler(chatSvc, log)
	healthHandler := handler.NewHealthHandler(st)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/api/health", healthHandler.Health)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Chat API
	r.Route("/api/chat", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/message", chatHandler.SendMessage)
		r.Get("/history/{sessionId}", chatHandler.GetHistory)
		r.Get("/health", healthHandler.Health)
	})

	// Widget static assets, when the directory exists.
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

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

// openStore selects the store implementation from configuration and
// converges its schema.
func openStore(cfg *config.Config) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.DatabaseDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return db, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure sqlite schema: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}
