package catalog

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"curator/config"
	"curator/internal/logging"
	"curator/models"
)

// Query describes one title to resolve.
type Query struct {
	Title       string
	Year        string
	MediaType   string // candidate's own hint: movie, tv_series or ""
	ContentType string // request preference
	Region      string
}

// regionLanguages maps a region preference to the original language it admits.
var regionLanguages = map[string]string{
	models.RegionHollywood: "en",
	models.RegionBollywood: "hi",
}

// Service resolves free-text titles against TMDB.
type Service struct {
	client    *tmdbClient
	cache     *fileCache
	group     singleflight.Group
	imageBase string
	log       zerolog.Logger
}

type Option func(*serviceOptions)

type serviceOptions struct {
	httpc *http.Client
	fs    afero.Fs
}

// WithHTTPClient overrides the HTTP client used for TMDB calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *serviceOptions) { o.httpc = c }
}

// WithFs sets the filesystem backing the response cache.
func WithFs(fs afero.Fs) Option {
	return func(o *serviceOptions) { o.fs = fs }
}

func NewService(cfg config.TMDBConfig, cacheCfg config.CacheConfig, opts ...Option) *Service {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		client:    newTMDBClient(cfg, o.httpc),
		cache:     newFileCache(o.fs, cacheCfg.Dir, cacheCfg.TTLHours),
		imageBase: strings.TrimRight(cfg.ImageBaseURL, "/"),
		log:       logging.WithComponent("catalog"),
	}
}

// Configured reports whether a TMDB key is present.
func (s *Service) Configured() bool {
	return s != nil && s.client.isConfigured()
}

// ImageURL prefixes a TMDB artwork path with the image base. Empty paths yield "".
func (s *Service) ImageURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.imageBase + path
}

// searchTypes picks which TMDB search endpoints to query. The candidate's own
// type wins over the request's content type; with neither, both are searched.
func searchTypes(q Query) []string {
	for _, hint := range []string{
		models.Candidate{Type: q.MediaType}.Kind(),
		models.Preferences{ContentType: q.ContentType}.MediaType(),
	} {
		switch hint {
		case models.MediaTypeMovie:
			return []string{models.MediaTypeMovie}
		case models.MediaTypeTVSeries:
			return []string{models.MediaTypeTVSeries}
		}
	}
	return []string{models.MediaTypeMovie, models.MediaTypeTVSeries}
}

// Resolve returns the best TMDB match for q with credits attached, or nil.
// Errors are logged and reported as no match.
func (s *Service) Resolve(ctx context.Context, q Query) *models.CatalogMatch {
	title := strings.TrimSpace(q.Title)
	if !s.Configured() || title == "" {
		return nil
	}
	types := searchTypes(q)
	region := strings.ToLower(strings.TrimSpace(q.Region))
	year := normalizeYear(q.Year)
	key := cacheKey("tmdb", "resolve", "v1", s.client.language, NormalizeTitle(title), year, strings.Join(types, ","), region)

	var cached models.CatalogMatch
	if ok, _ := s.cache.get(key, &cached); ok {
		return &cached
	}

	// the flight is shared across requests, so one caller's cancellation must not end it
	flightCtx := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(key, func() (any, error) {
		m := s.resolve(flightCtx, title, year, types, region)
		if m != nil {
			if err := s.cache.set(key, m); err != nil {
				s.log.Debug().Err(err).Str("title", title).Msg("cache write failed")
			}
		}
		return m, nil
	})
	m, _ := v.(*models.CatalogMatch)
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

func (s *Service) resolve(ctx context.Context, title, year string, types []string, region string) *models.CatalogMatch {
	results := make([][]tmdbResult, len(types))
	var wg conc.WaitGroup
	for i, mediaType := range types {
		wg.Go(func() {
			res, err := s.client.search(ctx, mediaType, title)
			if err != nil {
				s.log.Warn().Err(err).Str("title", title).Str("media_type", mediaType).Msg("tmdb search failed")
				return
			}
			results[i] = res
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		s.log.Error().Str("title", title).Str("panic", r.String()).Msg("tmdb search panicked")
		return nil
	}

	var pool []tmdbResult
	for _, res := range results {
		pool = append(pool, res...)
	}
	pool = filterRegion(pool, region)

	best, ok := selectBest(pool, title, year)
	if !ok {
		s.log.Debug().Str("title", title).Str("region", region).Msg("no tmdb match")
		return nil
	}

	match, err := s.client.details(ctx, best.mediaType, best.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("title", title).Int64("tmdb_id", best.ID).Msg("tmdb details failed")
		return nil
	}
	if match == nil {
		return nil
	}
	return match
}

// filterRegion keeps only results whose original language fits the region.
// An unknown or "any" region keeps everything.
func filterRegion(pool []tmdbResult, region string) []tmdbResult {
	lang, ok := regionLanguages[region]
	if !ok {
		return pool
	}
	out := pool[:0:0]
	for _, r := range pool {
		if strings.EqualFold(r.OriginalLanguage, lang) {
			out = append(out, r)
		}
	}
	return out
}

// selectBest applies match precedence: exact title and year, exact title,
// then highest popularity. Ties keep pool order.
func selectBest(pool []tmdbResult, title, year string) (tmdbResult, bool) {
	if len(pool) == 0 {
		return tmdbResult{}, false
	}
	want := NormalizeTitle(title)
	exact := func(r tmdbResult) bool {
		if want == "" {
			return false
		}
		return NormalizeTitle(r.displayTitle()) == want || NormalizeTitle(r.originalTitle()) == want
	}

	if year != "" {
		for _, r := range pool {
			if exact(r) && releaseYear(r.date()) == year {
				return r, true
			}
		}
	}
	for _, r := range pool {
		if exact(r) {
			return r, true
		}
	}
	best := pool[0]
	for _, r := range pool[1:] {
		if r.Popularity > best.Popularity {
			best = r
		}
	}
	return best, true
}

// Similar returns up to limit titles TMDB lists as similar to match.
func (s *Service) Similar(ctx context.Context, match *models.CatalogMatch, limit int) []*models.CatalogMatch {
	if match == nil || !s.Configured() {
		return nil
	}
	mediaType := match.MediaType
	if mediaType == "" {
		mediaType = models.MediaTypeMovie
	}
	results, err := s.client.similar(ctx, mediaType, match.TMDBID)
	if err != nil {
		s.log.Warn().Err(err).Int64("tmdb_id", match.TMDBID).Msg("tmdb similar failed")
		return nil
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]*models.CatalogMatch, 0, len(results))
	for _, r := range results {
		if r.displayTitle() == "" {
			continue
		}
		out = append(out, r.toMatch())
	}
	return out
}
