package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claimsight/internal/blob"
	"claimsight/internal/cfg"
	"claimsight/internal/metrics"
	"claimsight/internal/ml"
	"claimsight/internal/pipeline"
	"claimsight/internal/server"
	"claimsight/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load a local .env file when present; real environments set vars directly.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	m := metrics.New()

	st := initializeStore(c)
	if st != nil {
		defer st.Close()
	}

	svc := pipeline.New(pipeline.Options{
		PendingLabel: c.PendingLabel,
		DeniedLabel:  c.DeniedLabel,
		Forest: ml.ForestConfig{
			Trees:    c.Trees,
			MaxDepth: c.MaxDepth,
			Seed:     c.Seed,
		},
	}, m)

	uploader := blob.New(c.BlobEndpoint, c.BlobBucket, c.RESTTimeout)

	srv := server.New(c, svc, uploader, st, m)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("server start failed")
	}

	waitForShutdown(srv)
}

// initializeStore opens upload history storage if DATA_PATH is configured.
func initializeStore(c cfg.Settings) *store.Store {
	if c.DataPath != "" {
		st, err := store.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without history")
			return nil
		}
		return st
	}
	return nil
}

// waitForShutdown blocks until an interrupt arrives, then drains the server.
func waitForShutdown(srv *server.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
}
