package wordgen

import (
	"context"
	"math/rand"

	"posterlab/internal/domain"
)

// Generator produces a word/meaning/example triple for a theme and difficulty
// level. Implementations must always return a complete triple; remote
// failures are resolved internally by falling back to the sample table, so
// there is no error to surface.
type Generator interface {
	Generate(ctx context.Context, theme, level string) domain.WordText
}

var fallbackSamples = []domain.WordText{
	{
		Word:    "Ebullient",
		Meaning: "Cheerful and full of energy.",
		Example: "Her ebullient personality made her the life of the party.",
	},
	{
		Word:    "Sagacious",
		Meaning: "Having or showing keen mental discernment and good judgment; wise or shrewd.",
		Example: "The sagacious leader guided the team through difficult times.",
	},
	{
		Word:    "Serendipity",
		Meaning: "The occurrence and development of events by chance in a happy or beneficial way.",
		Example: "Finding the book was pure serendipity.",
	},
}

// Samples returns a copy of the built-in fallback triples.
func Samples() []domain.WordText {
	out := make([]domain.WordText, len(fallbackSamples))
	copy(out, fallbackSamples)
	return out
}

func pickSample(intn func(int) int) domain.WordText {
	if intn == nil {
		intn = rand.Intn
	}
	return fallbackSamples[intn(len(fallbackSamples))]
}

// Static is a Generator that only ever serves the fallback table. It backs
// deployments without a text-completion credential and unit tests.
type Static struct {
	// Intn allows tests to pin the sample choice. Nil means math/rand.
	Intn func(int) int
}

func (s Static) Generate(ctx context.Context, theme, level string) domain.WordText {
	return pickSample(s.Intn)
}

var _ Generator = Static{}
