package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"recall/internal/config"
	"recall/internal/services"
	"recall/internal/store"
	"recall/internal/store/primary"
	"recall/internal/store/vector"
)

// App wires the collaborators together once at startup and hands explicit
// references to the services that need them. Nothing here is a global.
type App struct {
	Config *config.Config

	PrimaryStore *primary.StoreImpl
	VectorIndex  store.VectorIndex
	Embedding    store.EmbeddingService
	QueryLog     *services.AsyncQueryLog

	SearchService *services.SearchService
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	app := &App{Config: cfg}

	if err := app.initPrimaryStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initVectorIndex(ctx); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	if err := app.initEmbeddingService(ctx); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initSearchService()

	log.Info("Application initialization complete")
	return app, nil
}

func (a *App) initPrimaryStore(ctx context.Context) error {
	ps, err := primary.NewStore(ctx, a.Config.Database.Primary.DSN)
	if err != nil {
		return fmt.Errorf("init primary store: %w", err)
	}
	a.PrimaryStore = ps
	return nil
}

func (a *App) initVectorIndex(ctx context.Context) error {
	vs, err := vector.NewStore(ctx, a.Config.Database.Vector.DSN)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}
	a.VectorIndex = vs
	return nil
}

func (a *App) initEmbeddingService(ctx context.Context) error {
	var providers []services.EmbeddingProvider
	cfg := a.Config

	if cfg.Embedding.OpenaiApiKey != "" {
		openaiProvider, err := services.NewOpenAIProvider(cfg.Embedding.OpenaiApiKey, cfg.Embedding.Model)
		if err != nil {
			log.WithError(err).Warn("failed to initialize OpenAI provider")
		} else {
			providers = append(providers, openaiProvider)
		}
	}
	if cfg.Embedding.GoogleApiKey != "" && cfg.Embedding.GeminiModelName != "" {
		geminiProvider, err := services.NewGeminiProvider(ctx, cfg.Embedding.GoogleApiKey, cfg.Embedding.GeminiModelName)
		if err != nil {
			log.WithError(err).Warn("failed to initialize Gemini provider")
		} else {
			providers = append(providers, geminiProvider)
		}
	}
	if len(providers) == 0 {
		return fmt.Errorf("no embedding providers configured (set OPENAI_API_KEY or GEMINI_API_KEY)")
	}

	retryStrategy := &services.SimpleRetryStrategy{MaxAttempts: 3, BaseDelayMs: 200}
	embeddingService, err := services.NewFallbackEmbeddingService(providers, retryStrategy)
	if err != nil {
		return fmt.Errorf("init embedding service: %w", err)
	}
	a.Embedding = embeddingService
	return nil
}

func (a *App) initSearchService() {
	a.QueryLog = services.NewAsyncQueryLog(a.PrimaryStore, a.Config.Search.QueryLogBuffer)
	a.SearchService = services.NewSearchService(services.SearchServiceDeps{
		Embedding: a.Embedding,
		Vector:    a.VectorIndex,
		Lexical:   a.PrimaryStore,
		Metadata:  a.PrimaryStore,
		QueryLog:  a.QueryLog,
		Config:    a.Config.Search,
	})
}

// Close releases the app's resources, flushing pending query log entries.
func (a *App) Close() {
	if a.QueryLog != nil {
		a.QueryLog.Close()
	}
	a.cleanupPartialInit()
}

func (a *App) cleanupPartialInit() {
	if a.VectorIndex != nil {
		a.VectorIndex.Close()
	}
	if a.PrimaryStore != nil {
		a.PrimaryStore.Close()
	}
}
