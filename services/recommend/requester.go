package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"curator/internal/logging"
	"curator/models"
	"curator/services/llm"
	"curator/services/music"
)

//go:generate mockery --name=Generator --with-expecter --inpackage --filename=generator_mock_test.go

// Generator turns a prompt into free-form model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrModelUnavailable wraps a failed model call.
var ErrModelUnavailable = errors.New("recommendation model unavailable")

// Input is one recommendation request after validation.
type Input struct {
	Liked              []string
	Preferences        models.Preferences
	AlreadyRecommended []string
	Excluded           []string
}

// Requester builds prompts and decodes the model's reply into candidates.
type Requester struct {
	gen Generator
	log zerolog.Logger
}

func NewRequester(gen Generator) *Requester {
	return &Requester{gen: gen, log: logging.WithComponent("requester")}
}

// Request asks for film or TV candidates. A reply that cannot be decoded
// returns an empty list together with an error wrapping llm.ErrDecode; a failed
// call returns an error wrapping ErrModelUnavailable.
func (r *Requester) Request(ctx context.Context, in Input) ([]models.Candidate, error) {
	return r.ask(ctx, BuildPrompt(in))
}

// RequestMusic asks for songs similar to the parsed seed track.
func (r *Requester) RequestMusic(ctx context.Context, in Input, seed music.Track) ([]models.Candidate, error) {
	return r.ask(ctx, BuildMusicPrompt(in, seed))
}

func (r *Requester) ask(ctx context.Context, prompt string) ([]models.Candidate, error) {
	log := logging.Ctx(ctx, r.log)
	raw, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	candidates, err := llm.DecodeRecommendations(raw)
	if err != nil {
		log.Warn().Err(err).Msg("model reply could not be decoded")
		return []models.Candidate{}, err
	}
	log.Debug().Int("candidates", len(candidates)).Msg("model reply decoded")
	return candidates, nil
}

// IdentifyArtist asks the model who performs title.
func (r *Requester) IdentifyArtist(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", errors.New("empty title")
	}
	raw, err := r.gen.Generate(ctx, BuildArtistPrompt(title))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return llm.DecodeArtist(raw)
}
