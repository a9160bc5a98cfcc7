package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/pipeline"
	"github.com/gigsight/trips-cli/internal/store"
	"github.com/gigsight/trips-cli/pkg/vision"
)

// pipelineEnv holds the initialized store, template registry, optional
// vision client, and the pipeline needed by most commands.
type pipelineEnv struct {
	Store    store.Store
	Registry *model.Registry
	Pipeline *pipeline.Pipeline
	Vision   vision.Client // nil when no vision key is configured
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, loads templates, and builds the Pipeline.
// Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg, err := loadRegistry()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var visionClient vision.Client
	if cfg.Vision.Key != "" {
		visionClient = vision.NewClient(cfg.Vision.Key, cfg.Vision.Model, cfg.Vision.MaxTokens, cfg.Vision.RequestsPerSecond)
		zap.L().Info("vision transcription enabled", zap.String("model", cfg.Vision.Model))
	} else {
		zap.L().Debug("TRIPS_VISION_KEY not set, image transcription disabled")
	}

	p := pipeline.New(st, reg, pipeline.Vehicle{
		RatedMPG:           cfg.Vehicle.RatedMPG,
		FuelPricePerGallon: cfg.Vehicle.FuelPricePerGallon,
	})

	return &pipelineEnv{
		Store:    st,
		Registry: reg,
		Pipeline: p,
		Vision:   visionClient,
	}, nil
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadRegistry builds the template registry, applying YAML overrides when
// configured.
func loadRegistry() (*model.Registry, error) {
	if cfg.Templates.OverridesPath == "" {
		return model.NewRegistry()
	}
	doc, err := os.ReadFile(cfg.Templates.OverridesPath)
	if err != nil {
		return nil, eris.Wrapf(err, "read template overrides %s", cfg.Templates.OverridesPath)
	}
	return model.NewRegistry(doc)
}
