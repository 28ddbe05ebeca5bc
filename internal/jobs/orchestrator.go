// Package jobs runs the poster pipeline: one goroutine per job walking
// text generation, a best-effort illustration attempt, and composition,
// publishing progress and partial results into a shared registry.
package jobs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"posterlab/internal/domain"
	"posterlab/internal/poster"
	"posterlab/internal/predict"
	"posterlab/internal/wordgen"
)

const defaultMaxActive = 8

// Illustrator produces illustration bytes for a prompt. A nil Illustrator
// marks the stage as intentionally skipped.
type Illustrator interface {
	Illustration(ctx context.Context, prompt string) ([]byte, error)
}

// Composer renders the final poster and its vector overlay.
type Composer interface {
	Overlay(spec poster.TextSpec) string
	Render(ctx context.Context, spec poster.TextSpec, illustration []byte) ([]byte, error)
}

type Options struct {
	Registry    *Registry
	Generator   wordgen.Generator
	Illustrator Illustrator
	Composer    Composer
	Logger      *zerolog.Logger
	// MaxActive bounds how many jobs run their pipeline at once. Jobs
	// beyond the bound stay queued.
	MaxActive int64
}

type Orchestrator struct {
	registry    *Registry
	generator   wordgen.Generator
	illustrator Illustrator
	composer    Composer
	logger      zerolog.Logger
	sem         *semaphore.Weighted
}

func NewOrchestrator(opts Options) *Orchestrator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	maxActive := opts.MaxActive
	if maxActive <= 0 {
		maxActive = defaultMaxActive
	}
	return &Orchestrator{
		registry:    opts.Registry,
		generator:   opts.Generator,
		illustrator: opts.Illustrator,
		composer:    opts.Composer,
		logger:      logger,
		sem:         semaphore.NewWeighted(maxActive),
	}
}

// Create registers a pending job and starts its pipeline. It returns the
// job id immediately; callers poll the registry for progress. A complete
// text triple skips the generation stage entirely.
func (o *Orchestrator) Create(theme, level string, text *domain.WordText) string {
	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Theme:     theme,
		Level:     level,
		Status:    domain.JobStatusPending,
		Progress:  domain.ProgressQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.registry.put(job)
	jobsSubmitted.WithLabelValues(level).Inc()

	var supplied *domain.WordText
	if text != nil {
		copied := *text
		supplied = &copied
	}
	go o.run(job.ID, theme, level, supplied)
	return job.ID
}

func (o *Orchestrator) run(id, theme, level string, supplied *domain.WordText) {
	ctx := context.Background()
	logger := o.logger.With().Str("job_id", id).Logger()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.fail(id, logger, fmt.Errorf("acquire worker slot: %w", err))
		return
	}
	defer o.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			o.fail(id, logger, fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	o.registry.update(id, func(j *domain.Job) {
		j.Status = domain.JobStatusProcessing
		j.Progress = domain.ProgressStarting
	})

	text := supplied
	if text == nil || !text.Complete() {
		o.setProgress(id, domain.ProgressCallingLLM)
		start := time.Now()
		generated := o.generator.Generate(ctx, theme, level)
		stageDuration.WithLabelValues("text").Observe(time.Since(start).Seconds())
		text = &generated
		o.setProgress(id, domain.ProgressLLMDone)
	}

	result := domain.JobResult{Text: text, Theme: theme, Level: level}
	publish := func(progress string) {
		snapshot := result
		o.registry.update(id, func(j *domain.Job) {
			j.Progress = progress
			j.Result = &snapshot
		})
	}

	// Text becomes visible to pollers here, before the slow stages run.
	publish(domain.ProgressTextReady)

	var illustration []byte
	if o.illustrator == nil {
		logger.Debug().Msg("jobs: illustrations disabled, skipping stage")
		publish(domain.ProgressIllustrationSkipped)
	} else {
		start := time.Now()
		data, err := o.illustrator.Illustration(ctx, IllustrationPrompt(theme, text.Word))
		stageDuration.WithLabelValues("illustration").Observe(time.Since(start).Seconds())
		switch {
		case err == nil:
			illustration = data
			result.IllustrationPresent = true
		case errors.Is(err, predict.ErrInvalidAsset):
			logger.Warn().Err(err).Msg("jobs: illustration asset invalid, continuing without it")
			result.IllustrationError = err.Error()
			publish(domain.ProgressIllustrationInvalid)
		default:
			logger.Warn().Err(err).Msg("jobs: illustration failed, continuing without it")
			result.IllustrationError = err.Error()
			publish(domain.ProgressIllustrationFailed)
		}
	}

	publish(domain.ProgressCompose)

	spec := poster.TextSpec{Word: text.Word, Meaning: text.Meaning, Example: text.Example}
	result.Overlay = o.composer.Overlay(spec)

	start := time.Now()
	img, err := o.composer.Render(ctx, spec, illustration)
	stageDuration.WithLabelValues("compose").Observe(time.Since(start).Seconds())
	if err != nil {
		o.fail(id, logger, err)
		return
	}
	result.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)

	snapshot := result
	o.registry.update(id, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
		j.Progress = domain.ProgressDone
		j.Result = &snapshot
	})
	jobsFinished.WithLabelValues(string(domain.JobStatusCompleted)).Inc()
	logger.Info().Str("word", text.Word).Bool("illustration", result.IllustrationPresent).Msg("jobs: poster completed")
}

func (o *Orchestrator) setProgress(id, progress string) {
	o.registry.update(id, func(j *domain.Job) {
		j.Progress = progress
	})
}

func (o *Orchestrator) fail(id string, logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("jobs: poster failed")
	o.registry.update(id, func(j *domain.Job) {
		j.Status = domain.JobStatusFailed
		j.Progress = domain.ProgressError
		j.Error = err.Error()
	})
	jobsFinished.WithLabelValues(string(domain.JobStatusFailed)).Inc()
}

// IllustrationPrompt builds the image prompt for a generated word on a theme.
func IllustrationPrompt(theme, word string) string {
	return fmt.Sprintf(
		"A clean, minimalist illustration for the English word %q on the theme %q. Flat colors, no text, no watermark, centered subject, plain background.",
		word, theme,
	)
}
