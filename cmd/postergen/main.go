// Command postergen runs the poster pipeline once, without the HTTP API,
// and writes the rendered assets onto the local filesystem.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"posterlab/internal/domain"
	"posterlab/internal/infra"
	"posterlab/internal/jobs"
	"posterlab/internal/poster"
	"posterlab/internal/predict"
	"posterlab/internal/storage"
	"posterlab/internal/wordgen"
)

func main() {
	theme := flag.String("theme", "", "poster theme, e.g. \"ocean\" (required)")
	level := flag.String("level", "medium", "difficulty level: easy, medium or hard")
	word := flag.String("word", "", "skip text generation and use this word")
	meaning := flag.String("meaning", "", "meaning for -word")
	example := flag.String("example", "", "example sentence for -word")
	outDir := flag.String("out", "./out", "output directory")
	name := flag.String("name", "poster", "base name for the written files")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall pipeline timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "postergen:", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *theme == "" {
		fmt.Fprintln(os.Stderr, "postergen: -theme is required")
		flag.Usage()
		os.Exit(2)
	}

	store, err := storage.NewFileStore(*outDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open output directory")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	text := domain.WordText{Word: *word, Meaning: *meaning, Example: *example}
	if !text.Complete() {
		generator := wordgen.NewOpenAIGenerator(wordgen.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Logger:  &logger,
		})
		text = generator.Generate(ctx, *theme, *level)
	}
	logger.Info().Str("word", text.Word).Msg("text ready")

	var illustration []byte
	if cfg.IllustrationsEnabled {
		client := predict.NewClient(predict.Options{
			Token:        cfg.ReplicateAPIToken,
			BaseURL:      cfg.ReplicateBaseURL,
			ModelVersion: cfg.ReplicateModel,
			PollTimeout:  cfg.PredictPollTimeout,
			PollInterval: cfg.PredictPollInterval,
			Logger:       &logger,
		})
		illustration, err = client.Illustration(ctx, jobs.IllustrationPrompt(*theme, text.Word))
		if err != nil {
			// Posters render fine without an illustration.
			logger.Warn().Err(err).Msg("illustration unavailable")
			illustration = nil
		}
	}

	compositor := poster.NewCompositor(poster.Options{
		FontsDir: cfg.FontsDir,
		LogoPath: cfg.LogoPath,
		Logger:   &logger,
	})
	spec := poster.TextSpec{Word: text.Word, Meaning: text.Meaning, Example: text.Example}

	image, err := compositor.Render(ctx, spec, illustration)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to render poster")
	}

	textJSON, err := json.MarshalIndent(text, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode text")
	}

	files := map[string][]byte{
		*name + ".png":  image,
		*name + ".svg":  []byte(compositor.Overlay(spec)),
		*name + ".json": textJSON,
	}
	for key, data := range files {
		written, err := store.Write(ctx, key, data)
		if err != nil {
			logger.Fatal().Err(err).Str("key", key).Msg("failed to write output")
		}
		fmt.Println(store.BasePath() + "/" + written)
	}
}
