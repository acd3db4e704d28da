package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/member-qa/internal/answer"
	"github.com/xaenox/member-qa/internal/corpus"
	"github.com/xaenox/member-qa/internal/engine"
	"github.com/xaenox/member-qa/internal/fetcher"
	"github.com/xaenox/member-qa/internal/models"
	"github.com/xaenox/member-qa/internal/resolver"
	"github.com/xaenox/member-qa/internal/retrieval"
	"github.com/xaenox/member-qa/internal/server"
	"github.com/xaenox/member-qa/internal/storage"
	"github.com/xaenox/member-qa/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize snapshot storage
	var store storage.Store
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory snapshot store")
		store = storage.NewMemoryStore()
	} else {
		logger.Info("Using PostgreSQL snapshot store")
		store, err = storage.NewPostgresStore(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize snapshot store", zap.Error(err))
		}
	}
	defer store.Close()

	// Drain the upstream
	client := fetcher.New(fetcher.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		PageSize:       cfg.Upstream.PageSize,
		MaxAttempts:    cfg.Upstream.MaxAttempts,
		InitialBackoff: cfg.Upstream.InitialBackoff,
		MaxBackoff:     cfg.Upstream.MaxBackoff,
		RequestTimeout: cfg.Upstream.RequestTimeout,
		RateLimit:      cfg.Upstream.RateLimit,
	}, logger)

	records := loadCorpus(context.Background(), client, store, logger)

	c := corpus.Build(records)
	logger.Info("Corpus loaded",
		zap.Int("messages", c.Len()),
		zap.Int("users", len(c.Users())))

	// Pick the answer backend
	var answerer answer.Answerer
	if cfg.OpenAI.APIKey != "" {
		logger.Info("Using OpenAI answer backend", zap.String("model", cfg.OpenAI.Model))
		answerer = answer.NewGPT(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens, cfg.OpenAI.Temperature, logger)
	} else {
		logger.Warn("No OpenAI API key configured, using keyword fallback")
		answerer = answer.NewKeyword()
	}

	eng := engine.New(
		c,
		resolver.New(cfg.Retrieval.MatchThreshold),
		retrieval.New(cfg.Retrieval.MaxContext, cfg.Retrieval.MinOverlap),
		answerer,
		logger,
	)
	eng.SetReady()

	srv := server.New(eng, logger)
	if err := srv.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

// loadCorpus drains the upstream, saving a snapshot on success. When the
// fetch ends with a partial result the last saved snapshot replaces it if
// it holds more records; the service starts either way.
func loadCorpus(ctx context.Context, client *fetcher.Client, store storage.Store, logger *zap.Logger) []models.Message {
	records, err := client.FetchAll(ctx)
	if err == nil {
		if saveErr := store.SaveMessages(ctx, records); saveErr != nil {
			logger.Warn("Failed to save corpus snapshot", zap.Error(saveErr))
		}
		return records
	}

	var incomplete *fetcher.IncompleteError
	if !errors.As(err, &incomplete) {
		logger.Fatal("Fetch failed", zap.Error(err))
	}
	logger.Warn("Fetch incomplete, starting degraded",
		zap.Int("fetched", incomplete.Fetched),
		zap.Error(incomplete.Err))

	snapshot, loadErr := store.LoadMessages(ctx)
	if loadErr != nil {
		logger.Warn("Failed to load corpus snapshot", zap.Error(loadErr))
		return records
	}
	if len(snapshot) > len(records) {
		logger.Info("Using saved corpus snapshot", zap.Int("messages", len(snapshot)))
		return snapshot
	}
	return records
}
