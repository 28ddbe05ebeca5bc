package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"posterlab/internal/http/handlers"
	"posterlab/internal/http/httpapi"
	"posterlab/internal/infra"
	"posterlab/internal/infra/geoip"
	"posterlab/internal/jobs"
	"posterlab/internal/middleware"
	"posterlab/internal/poster"
	"posterlab/internal/predict"
	"posterlab/internal/wordgen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	app := &handlers.App{Config: *cfg, Logger: logger}

	// The voting surface needs Postgres; the poster pipeline does not.
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(context.Background(), cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		app.SQL = infra.NewSQLRunner(dbpool, logger)
	} else {
		logger.Warn().Msg("DATABASE_URL not set; voting endpoints disabled")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	generator := wordgen.NewOpenAIGenerator(wordgen.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Logger:  &logger,
	})

	var illustrator jobs.Illustrator
	if cfg.IllustrationsEnabled {
		illustrator = predict.NewClient(predict.Options{
			Token:        cfg.ReplicateAPIToken,
			BaseURL:      cfg.ReplicateBaseURL,
			ModelVersion: cfg.ReplicateModel,
			PollTimeout:  cfg.PredictPollTimeout,
			PollInterval: cfg.PredictPollInterval,
			Logger:       &logger,
		})
	} else {
		logger.Info().Msg("prediction service not configured; posters render without illustrations")
	}

	compositor := poster.NewCompositor(poster.Options{
		FontsDir: cfg.FontsDir,
		LogoPath: cfg.LogoPath,
		Logger:   &logger,
	})

	app.Registry = jobs.NewRegistry()
	app.Orchestrator = jobs.NewOrchestrator(jobs.Options{
		Registry:    app.Registry,
		Generator:   generator,
		Illustrator: illustrator,
		Composer:    compositor,
		Logger:      &logger,
		MaxActive:   int64(cfg.MaxActiveJobs),
	})

	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
