package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cardfolio/cardscan-cli/internal/enrich"
	"github.com/cardfolio/cardscan-cli/internal/resilience"
	"github.com/cardfolio/cardscan-cli/internal/store"
	"github.com/cardfolio/cardscan-cli/internal/vision"
	anthropicpkg "github.com/cardfolio/cardscan-cli/pkg/anthropic"
	"github.com/cardfolio/cardscan-cli/pkg/gemini"
)

// scanEnv holds the initialized store, clients, and orchestrator shared by
// the scan, batch, and serve commands.
type scanEnv struct {
	Store        store.Store
	Orchestrator *enrich.Orchestrator
	gemini       gemini.Client
}

// Close releases resources held by the scan environment.
func (e *scanEnv) Close() {
	if e.gemini != nil {
		_ = e.gemini.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initScanEnv validates config, opens the store, builds the vision and
// enrichment clients, and wires the orchestrator. Callers should defer
// env.Close().
func initScanEnv(ctx context.Context) (*scanEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.Key, cfg.Gemini.VisionModel)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init gemini client")
	}
	extractor := vision.NewGeminiExtractor(geminiClient)

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	services := enrich.NewServices(anthropicClient, cfg.Anthropic.Model, cfg.Pipeline.RatePerSec)

	retry := resilience.DefaultRetryConfig()
	retry.Timeout = cfg.Pipeline.OpTimeout()
	if cfg.Pipeline.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Pipeline.MaxAttempts
	}
	retry.OnRetry = resilience.RetryLogger("enrichment")

	orch := enrich.NewOrchestrator(extractor, enrich.NewHeuristicAnalyzer(), services, retry)

	zap.L().Info("scan pipeline initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("vision_model", cfg.Gemini.VisionModel),
		zap.String("enrich_model", cfg.Anthropic.Model),
	)

	return &scanEnv{
		Store:        st,
		Orchestrator: orch,
		gemini:       geminiClient,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "cardscan.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
