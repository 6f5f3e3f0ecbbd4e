// Command curator serves LLM-backed film, series and music recommendations
// enriched with catalog, review and track metadata.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curator/api"
	"curator/config"
	"curator/handlers"
	"curator/internal/logging"
	"curator/services/catalog"
	"curator/services/llm"
	"curator/services/music"
	"curator/services/recommend"
	"curator/services/reviews"
	"curator/utils"
)

func main() {
	loaded, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	mgr := config.NewManager(loaded)
	cfg := mgr.Get()

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Caller:     cfg.Logging.Caller,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gemini := llm.NewGeminiClient(cfg.Gemini, nil)
	catalogSvc := catalog.NewService(cfg.TMDB, cfg.Cache)
	reviewsClient := reviews.NewClient(cfg.OMDB, nil)
	musicClient := music.NewClient(cfg.LastFM, nil)

	for name, ok := range map[string]bool{
		"tmdb":   catalogSvc.Configured(),
		"omdb":   reviewsClient.Configured(),
		"lastfm": musicClient.Configured(),
	} {
		if !ok {
			logging.Warn().Str("provider", name).Msg("API key not configured; provider disabled")
		}
	}

	recommender := recommend.NewService(
		cfg.Recommend,
		cfg.Images,
		recommend.NewRequester(gemini),
		catalogSvc,
		reviewsClient,
		musicClient,
	)

	limiter := api.NewIPRateLimiterFromConfig(ctx, cfg.RateLimit)
	httpLog := logging.WithComponent("http")
	router := utils.NewRouter(api.RequestID, api.AccessLog(httpLog), api.Recover(httpLog))
	handlers.Register(router, handlers.NewRecommendHandler(recommender), limiter.Middleware)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           utils.WithCORS(router),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Str("version", handlers.ServiceVersion()).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("HTTP server failed")
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	logging.Info().Msg("server stopped")
}
