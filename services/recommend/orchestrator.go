// Package recommend runs the recommendation pipeline: ask the model for
// candidates, enrich each one from the catalog, review and music sources in a
// bounded fan-out, fall back to similar-items lists when the model has nothing,
// and filter the result against what the caller has already seen.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"curator/config"
	"curator/internal/logging"
	"curator/internal/metrics"
	"curator/models"
	"curator/services/catalog"
	"curator/services/llm"
	"curator/services/music"
	"curator/services/reviews"
)

const (
	emptyFilmMessage  = "No recommendations found. Please try with a different movie."
	emptyMusicMessage = "No recommendations found. Please try with a different song."

	similarTracksShown = 5
)

// ErrNoLikedItems is returned when every liked item is blank.
var ErrNoLikedItems = errors.New("likedMovies must contain at least one non-empty title")

// Catalog resolves titles to TMDB records.
type Catalog interface {
	Resolve(ctx context.Context, q catalog.Query) *models.CatalogMatch
	Similar(ctx context.Context, match *models.CatalogMatch, limit int) []*models.CatalogMatch
	ImageURL(path string) string
}

// Reviews looks up editorial review data by title.
type Reviews interface {
	Lookup(ctx context.Context, title, year, mediaType string) (*models.SecondaryRecord, error)
}

// Tracks is the music metadata source.
type Tracks interface {
	TrackInfo(ctx context.Context, track, artist string) (*music.TrackInfo, error)
	Similar(ctx context.Context, track, artist string, limit int) ([]music.TrackInfo, error)
	TopTracksByTag(ctx context.Context, tag string, limit int) ([]music.TrackInfo, error)
}

// Service is the enrichment orchestrator.
type Service struct {
	cfg       config.RecommendConfig
	images    config.ImagesConfig
	requester *Requester
	catalog   Catalog
	reviews   Reviews
	tracks    Tracks
	log       zerolog.Logger

	filmFallback  Fallback
	musicFallback Fallback
}

func NewService(cfg config.RecommendConfig, images config.ImagesConfig, requester *Requester, cat Catalog, rev Reviews, tracks Tracks) *Service {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = PageSize
	}
	if cfg.SimilarLimit <= 0 {
		cfg.SimilarLimit = 10
	}
	if cfg.FallbackCount <= 0 {
		cfg.FallbackCount = PageSize
	}
	s := &Service{
		cfg:       cfg,
		images:    images,
		requester: requester,
		catalog:   cat,
		reviews:   rev,
		tracks:    tracks,
		log:       logging.WithComponent("recommend"),
	}
	s.filmFallback = filmFallback{s: s}
	s.musicFallback = musicFallback{s: s}
	return s
}

func logFor(ctx context.Context, l zerolog.Logger) *zerolog.Logger {
	return logging.Ctx(ctx, l)
}

// Recommend runs the pipeline for one request. The only errors returned are a
// failed or unparseable model reply when no fallback is allowed.
func (s *Service) Recommend(ctx context.Context, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	in := Input{Liked: trimAll(req.LikedMovies)}
	if len(in.Liked) == 0 {
		return nil, ErrNoLikedItems
	}
	if req.Preferences != nil {
		in.Preferences = *req.Preferences
	}
	in.AlreadyRecommended = req.AlreadyRecommended
	in.Excluded = req.ExcludeMovies
	excluded := NewExclusionSet(req.ExcludeMovies, req.AlreadyRecommended)

	if in.Preferences.IsMusic() {
		return s.run(ctx, in, excluded, "music", s.requestMusic, s.enrichTrack, s.musicFallback, emptyMusicMessage)
	}
	return s.run(ctx, in, excluded, "film", s.requester.Request, s.enrichTitle, s.filmFallback, emptyFilmMessage)
}

type requestFunc func(context.Context, Input) ([]models.Candidate, error)

type enrichFunc func(context.Context, models.Candidate, models.Preferences) models.EnrichedRecommendation

func (s *Service) run(ctx context.Context, in Input, excluded ExclusionSet, kind string,
	request requestFunc, enrich enrichFunc, fallback Fallback, emptyMessage string,
) (*models.RecommendResponse, error) {
	log := logFor(ctx, s.log)

	candidates, err := request(ctx, in)
	if err != nil {
		if !s.cfg.FallbackEnabled {
			if errors.Is(err, llm.ErrDecode) {
				return nil, fmt.Errorf("failed to parse AI response: %w", err)
			}
			return nil, err
		}
		log.Warn().Err(err).Str("kind", kind).Msg("model produced no usable reply, using fallback")
	}

	source := "model"
	var recs []models.EnrichedRecommendation
	if len(candidates) > 0 {
		recs = filterRecommendations(s.enrichAll(ctx, candidates, in.Preferences, enrich), excluded)
	} else if s.cfg.FallbackEnabled {
		source = "fallback"
		recs = filterRecommendations(fallback.Recommend(ctx, in), excluded)
		if len(recs) > s.cfg.FallbackCount {
			recs = recs[:s.cfg.FallbackCount]
		}
	}

	resp := &models.RecommendResponse{Recommendations: recs}
	if len(recs) == 0 {
		source = "empty"
		resp.Recommendations = []models.EnrichedRecommendation{}
		resp.Message = emptyMessage
	}
	metrics.PipelineOutcomes.WithLabelValues(kind, source).Inc()
	log.Info().Str("kind", kind).Str("source", source).Int("count", len(resp.Recommendations)).Msg("recommendations ready")
	return resp, nil
}

// enrichAll enriches candidates concurrently, at most cfg.MaxConcurrency at a
// time. Output order matches candidate order.
func (s *Service) enrichAll(ctx context.Context, candidates []models.Candidate, prefs models.Preferences, enrich enrichFunc) []models.EnrichedRecommendation {
	out := make([]models.EnrichedRecommendation, len(candidates))
	p := pool.New().WithMaxGoroutines(s.cfg.MaxConcurrency)
	for i, c := range candidates {
		p.Go(func() {
			out[i] = enrich(ctx, c, prefs)
		})
	}
	p.Wait()
	return out
}

// enrichTitle resolves a film/TV candidate on TMDB and OMDb concurrently.
// Either source failing leaves only its own fields empty.
func (s *Service) enrichTitle(ctx context.Context, c models.Candidate, prefs models.Preferences) models.EnrichedRecommendation {
	log := logFor(ctx, s.log)
	rec := models.NewEnrichedRecommendation(c)
	// type hint for the review source; empty searches every type
	hint := rec.Type
	if hint == "" {
		hint = prefs.MediaType()
	}

	var (
		match  *models.CatalogMatch
		review *models.SecondaryRecord
		wg     conc.WaitGroup
	)
	wg.Go(func() {
		match = s.catalog.Resolve(ctx, catalog.Query{
			Title:       c.Title,
			Year:        c.Year.String(),
			MediaType:   c.Kind(),
			ContentType: prefs.ContentType,
			Region:      prefs.Region,
		})
	})
	wg.Go(func() {
		r, err := s.reviews.Lookup(ctx, c.Title, c.Year.String(), hint)
		if err != nil {
			level := zerolog.WarnLevel
			if errors.Is(err, reviews.ErrNotConfigured) {
				level = zerolog.DebugLevel
			}
			log.WithLevel(level).Err(err).Str("title", c.Title).Msg("review lookup failed")
			return
		}
		review = r
	})
	if r := wg.WaitAndRecover(); r != nil {
		log.Error().Str("title", c.Title).Str("panic", r.String()).Msg("enrichment panicked")
	}

	s.mergeCatalog(&rec, match, review)
	if rec.Type == "" {
		rec.Type = prefs.MediaType()
	}
	return rec
}

// mergeCatalog copies catalog and review data onto rec and derives artwork URLs.
func (s *Service) mergeCatalog(rec *models.EnrichedRecommendation, match *models.CatalogMatch, review *models.SecondaryRecord) {
	rec.TMDBData = match
	rec.OMDBData = review
	rec.PosterURL = s.images.PosterPlaceholder
	rec.BackdropURL = s.images.BackdropPlaceholder

	if match == nil {
		metrics.EnrichmentMisses.WithLabelValues("tmdb_data").Inc()
	} else {
		if u := s.catalog.ImageURL(match.PosterPath); u != "" {
			rec.PosterURL = u
		}
		if u := s.catalog.ImageURL(match.BackdropPath); u != "" {
			rec.BackdropURL = u
		}
		if len(rec.Tags) == 0 {
			rec.Tags = append([]string{}, match.Genres...)
		}
		if rec.Year == "" {
			rec.Year = yearOf(match.ReleaseDate)
		}
		if rec.Type == "" {
			rec.Type = match.MediaType
		}
	}
	if review == nil {
		metrics.EnrichmentMisses.WithLabelValues("omdb_data").Inc()
	}
}

func (s *Service) requestMusic(ctx context.Context, in Input) ([]models.Candidate, error) {
	seed := music.ParseTrack(ctx, in.Liked[0], music.DefaultStrategies(s.requester))
	logFor(ctx, s.log).Debug().Str("title", seed.Title).Str("artist", seed.Artist).Msg("parsed seed track")
	return s.requester.RequestMusic(ctx, in, seed)
}

// enrichTrack adds Last.fm listeners, artwork, description and similar tracks.
func (s *Service) enrichTrack(ctx context.Context, c models.Candidate, _ models.Preferences) models.EnrichedRecommendation {
	log := logFor(ctx, s.log)
	rec := models.NewEnrichedRecommendation(c)
	rec.Type = models.MediaTypeMusic

	var (
		info    *music.TrackInfo
		similar []music.TrackInfo
		wg      conc.WaitGroup
	)
	wg.Go(func() {
		t, err := s.tracks.TrackInfo(ctx, c.Title, c.Artist)
		if err != nil {
			log.Warn().Err(err).Str("title", c.Title).Msg("lastfm track lookup failed")
			return
		}
		info = t
	})
	wg.Go(func() {
		t, err := s.tracks.Similar(ctx, c.Title, c.Artist, s.cfg.SimilarLimit)
		if err != nil {
			log.Warn().Err(err).Str("title", c.Title).Msg("lastfm similar tracks failed")
			return
		}
		similar = t
	})
	if r := wg.WaitAndRecover(); r != nil {
		log.Error().Str("title", c.Title).Str("panic", r.String()).Msg("enrichment panicked")
	}

	rec.Listeners = "N/A"
	rec.Description = c.Reasoning
	if info != nil {
		rec.Listeners = orNA(info.Listeners)
		rec.Image = info.Image
		if info.Description != "" {
			rec.Description = info.Description
		}
		if len(rec.Tags) == 0 {
			rec.Tags = append([]string{}, info.Tags...)
		}
		if rec.Artist == "" {
			rec.Artist = info.Artist
		}
	} else {
		metrics.EnrichmentMisses.WithLabelValues("lastfm").Inc()
	}
	rec.PosterURL = s.posterOr(rec.Image)

	rec.SimilarTracks = make([]models.TrackRef, 0, similarTracksShown)
	for _, t := range similar {
		if len(rec.SimilarTracks) == similarTracksShown {
			break
		}
		rec.SimilarTracks = append(rec.SimilarTracks, models.TrackRef{Title: t.Title, Artist: t.Artist})
	}
	return rec
}

func (s *Service) posterOr(image string) string {
	if strings.TrimSpace(image) != "" {
		return image
	}
	return s.images.PosterPlaceholder
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
