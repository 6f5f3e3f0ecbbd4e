package recommend

import (
	"context"
	"fmt"
	"strings"

	"curator/models"
	"curator/services/catalog"
	"curator/services/music"
)

// Fallback derives recommendations straight from a catalog's similar-items
// list, seeded by the first liked item, when the model produced nothing.
type Fallback interface {
	Recommend(ctx context.Context, in Input) []models.EnrichedRecommendation
}

func similarReason(seed string) string {
	return fmt.Sprintf("Similar to %s", strings.TrimSpace(seed))
}

// filmFallback resolves the first liked title on TMDB and lists its similar titles.
type filmFallback struct{ s *Service }

func (f filmFallback) Recommend(ctx context.Context, in Input) []models.EnrichedRecommendation {
	s := f.s
	if len(in.Liked) == 0 {
		return nil
	}
	seed := in.Liked[0]
	match := s.catalog.Resolve(ctx, catalog.Query{
		Title:       seed,
		ContentType: in.Preferences.ContentType,
		Region:      in.Preferences.Region,
	})
	if match == nil {
		logFor(ctx, s.log).Info().Str("seed", seed).Msg("fallback: seed not found in catalog")
		return nil
	}

	similar := s.catalog.Similar(ctx, match, s.cfg.SimilarLimit)
	out := make([]models.EnrichedRecommendation, 0, len(similar))
	for _, m := range similar {
		rec := models.EnrichedRecommendation{
			Title:     m.Title,
			Type:      m.MediaType,
			Year:      yearOf(m.ReleaseDate),
			Reasoning: similarReason(seed),
			Tags:      append([]string{}, m.Genres...),
		}
		s.mergeCatalog(&rec, m, nil)
		out = append(out, rec)
	}
	return out
}

// musicFallback asks Last.fm for tracks similar to the first liked song, then
// for the top tracks of the first preferred genre.
type musicFallback struct{ s *Service }

func (f musicFallback) Recommend(ctx context.Context, in Input) []models.EnrichedRecommendation {
	s := f.s
	if len(in.Liked) == 0 {
		return nil
	}
	seed := in.Liked[0]
	log := logFor(ctx, s.log)
	track := music.SplitSimple(seed)

	var out []models.EnrichedRecommendation
	info, err := s.tracks.TrackInfo(ctx, track.Title, track.Artist)
	if err != nil {
		log.Warn().Err(err).Str("seed", seed).Msg("fallback: lastfm track lookup failed")
	}
	if info != nil {
		similar, err := s.tracks.Similar(ctx, track.Title, info.Artist, s.cfg.SimilarLimit)
		if err != nil {
			log.Warn().Err(err).Str("seed", seed).Msg("fallback: lastfm similar tracks failed")
		}
		for _, t := range similar {
			out = append(out, s.trackRecommendation(t, similarReason(seed)))
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, genre := range in.Preferences.Genres {
		if genre = strings.TrimSpace(genre); genre == "" {
			continue
		}
		top, err := s.tracks.TopTracksByTag(ctx, genre, s.cfg.SimilarLimit)
		if err != nil {
			log.Warn().Err(err).Str("tag", genre).Msg("fallback: lastfm top tracks failed")
		}
		for _, t := range top {
			out = append(out, s.trackRecommendation(t, fmt.Sprintf("Popular %s track", genre)))
		}
		break
	}
	return out
}

func (s *Service) trackRecommendation(t music.TrackInfo, reason string) models.EnrichedRecommendation {
	rec := models.EnrichedRecommendation{
		Title:         t.Title,
		Artist:        t.Artist,
		Type:          models.MediaTypeMusic,
		Reasoning:     reason,
		Tags:          append([]string{}, t.Tags...),
		Listeners:     orNA(t.Listeners),
		Image:         t.Image,
		SimilarTracks: []models.TrackRef{},
	}
	rec.PosterURL = s.posterOr(t.Image)
	return rec
}

func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

func orNA(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "N/A"
	}
	return s
}
