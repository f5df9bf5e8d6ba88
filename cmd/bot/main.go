package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/schoolbos/school_bot/internal/app"
	"github.com/schoolbos/school_bot/internal/config"
	"github.com/schoolbos/school_bot/internal/engine"
	"github.com/schoolbos/school_bot/internal/engine/forms"
	"github.com/schoolbos/school_bot/internal/engine/intent"
	"github.com/schoolbos/school_bot/internal/llm"
	"github.com/schoolbos/school_bot/internal/rag"
	"github.com/schoolbos/school_bot/internal/repository"
	"github.com/schoolbos/school_bot/internal/service"
	"github.com/schoolbos/school_bot/internal/transport/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, "migrations", logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrator.Close()

	// Repositories.
	sessionRepo := repository.NewSessionRepository(pool)
	directoryRepo := repository.NewDirectoryRepository(pool)
	schoolRepo := repository.NewSchoolRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	inquiryRepo := repository.NewInquiryRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)

	// LLM backends.
	generator := llm.NewClient(llm.Config{
		APIKey:    cfg.LLMAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
	}, logger)
	embedder := llm.NewEmbedder(llm.EmbeddingConfig{
		APIKey:     cfg.EmbedAPIKey,
		BaseURL:    cfg.EmbedBaseURL,
		Model:      cfg.EmbedModel,
		Dimensions: cfg.EmbedDimensions,
	})

	retriever := rag.NewRetriever(embedder, documentRepo, logger)

	// Outbound transport.
	sender := whatsapp.NewClient(
		cfg.WhatsAppToken,
		cfg.WhatsAppPhoneNumberID,
		cfg.AdminPhone,
		generator,
		logger,
	)

	// Dialogue core.
	resolver, err := intent.NewResolver()
	if err != nil {
		logger.Fatal("Invalid intent table", zap.Error(err))
	}

	sessions := service.NewSessionService(sessionRepo, directoryRepo, cfg.SessionTTL, logger)
	formRunner := forms.NewEngine(
		directoryRepo,
		schoolRepo,
		generator,
		notifierAdapter{sender},
		appointmentRepo,
		inquiryRepo,
		logger,
	)
	dialogue := engine.New(
		sessions,
		directoryRepo,
		schoolRepo,
		generator,
		retriever,
		formRunner,
		resolver,
		cfg.LLMMaxTokens,
		logger,
	)

	// Background document indexing.
	indexer := app.NewIndexer(embedder, documentRepo, logger)
	indexer.Start(ctx)
	defer indexer.Stop()

	// HTTP surface.
	webhook := whatsapp.NewWebhook(cfg.WebhookVerifyToken, dialogue, appointmentRepo, sender, logger)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: webhook.Router(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	logger.Info("Stopped")
}

// notifierAdapter bridges the forms notifier interface onto the WhatsApp
// client, converting the action type across the package boundary.
type notifierAdapter struct {
	client *whatsapp.Client
}

func (n notifierAdapter) NotifyAdmin(ctx context.Context, template string, variables map[string]string, actions []forms.Action) error {
	converted := make([]whatsapp.Action, 0, len(actions))
	for _, a := range actions {
		converted = append(converted, whatsapp.Action{Label: a.Label, Payload: a.Payload})
	}
	return n.client.NotifyAdmin(ctx, template, variables, converted)
}
