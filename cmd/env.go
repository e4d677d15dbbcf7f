package main

import (
	"context"

	"github.com/sunward-group/rooftop-cli/internal/pipeline"
	"github.com/sunward-group/rooftop-cli/internal/store"
	"github.com/sunward-group/rooftop-cli/pkg/geocode"
	"github.com/sunward-group/rooftop-cli/pkg/vision"
)

// initStore opens the configured persistence backend with migrations applied.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

// initPipeline builds the analysis pipeline. Without a vision key the
// pipeline still works; image analysis degrades to roof files or defaults.
func initPipeline() *pipeline.Pipeline {
	var vis vision.Client
	if cfg.Vision.Key != "" {
		vis = vision.NewClient(cfg.Vision.Key,
			vision.WithModel(cfg.Vision.Model),
			vision.WithMaxTokens(cfg.Vision.MaxTokens),
			vision.WithRateLimit(cfg.Vision.RPS),
		)
	}
	// The Census geocoder needs no API key, so it is always wired.
	return pipeline.New(cfg, vis, pipeline.WithGeocoder(geocode.NewClient()))
}
