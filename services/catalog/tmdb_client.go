package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"curator/config"
	"curator/internal/upstream"
	"curator/models"
)

var ErrNotConfigured = errors.New("tmdb api key not configured")

// Credits kept per match.
const topCredits = 5

// tmdbClient is a minimal TMDB v3 client: title search, details with credits and similar titles.
type tmdbClient struct {
	apiKey   string
	baseURL  string
	language string
	http     *upstream.Client
}

func newTMDBClient(cfg config.TMDBConfig, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	return &tmdbClient{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		http:     upstream.NewClient("tmdb", httpc, upstream.DefaultBreakerSettings()),
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// tmdbResult is one entry of a search or similar-titles page. Movies use
// title/release_date, series use name/first_air_date.
type tmdbResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalTitle    string  `json:"original_title"`
	OriginalName     string  `json:"original_name"`
	OriginalLanguage string  `json:"original_language"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Popularity       float64 `json:"popularity"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	GenreIDs         []int   `json:"genre_ids"`
	Overview         string  `json:"overview"`

	// mediaType is set from the endpoint the result came from, not from the payload.
	mediaType string
}

func (r tmdbResult) displayTitle() string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	return strings.TrimSpace(r.Name)
}

func (r tmdbResult) originalTitle() string {
	if t := strings.TrimSpace(r.OriginalTitle); t != "" {
		return t
	}
	return strings.TrimSpace(r.OriginalName)
}

func (r tmdbResult) date() string {
	if d := strings.TrimSpace(r.ReleaseDate); d != "" {
		return d
	}
	return strings.TrimSpace(r.FirstAirDate)
}

type tmdbPage struct {
	Page    int          `json:"page"`
	Results []tmdbResult `json:"results"`
}

type tmdbDetails struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalTitle    string  `json:"original_title"`
	OriginalName     string  `json:"original_name"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	Popularity       float64 `json:"popularity"`
	Genres           []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			Name      string `json:"name"`
			Character string `json:"character"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// endpointFor maps our media type onto TMDB's path segment.
func endpointFor(mediaType string) string {
	if mediaType == models.MediaTypeTVSeries {
		return "tv"
	}
	return "movie"
}

func (c *tmdbClient) params(extra url.Values) url.Values {
	p := url.Values{"api_key": {c.apiKey}}
	if c.language != "" {
		p.Set("language", c.language)
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func (c *tmdbClient) getJSON(ctx context.Context, operation, path string, params url.Values, v any) (bool, error) {
	resp, err := c.http.Get(ctx, operation, c.baseURL+path, c.params(params))
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if !resp.OK() {
		return false, fmt.Errorf("tmdb %s failed: status %d", operation, resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return false, fmt.Errorf("decode tmdb %s: %w", operation, err)
	}
	return true, nil
}

// search queries /search/movie or /search/tv and tags every result with mediaType.
func (c *tmdbClient) search(ctx context.Context, mediaType, query string) ([]tmdbResult, error) {
	if !c.isConfigured() {
		return nil, ErrNotConfigured
	}
	var page tmdbPage
	found, err := c.getJSON(ctx, "search_"+endpointFor(mediaType), "/search/"+endpointFor(mediaType),
		url.Values{"query": {query}, "include_adult": {"false"}}, &page)
	if err != nil || !found {
		return nil, err
	}
	for i := range page.Results {
		page.Results[i].mediaType = mediaType
	}
	return page.Results, nil
}

// details fetches a title with its credits appended. A 404 yields (nil, nil).
func (c *tmdbClient) details(ctx context.Context, mediaType string, id int64) (*models.CatalogMatch, error) {
	if !c.isConfigured() {
		return nil, ErrNotConfigured
	}
	var d tmdbDetails
	path := fmt.Sprintf("/%s/%d", endpointFor(mediaType), id)
	found, err := c.getJSON(ctx, "details_"+endpointFor(mediaType), path, url.Values{"append_to_response": {"credits"}}, &d)
	if err != nil || !found {
		return nil, err
	}
	return d.toMatch(mediaType), nil
}

// similar fetches the first page of /{type}/{id}/similar.
func (c *tmdbClient) similar(ctx context.Context, mediaType string, id int64) ([]tmdbResult, error) {
	if !c.isConfigured() {
		return nil, ErrNotConfigured
	}
	var page tmdbPage
	path := fmt.Sprintf("/%s/%d/similar", endpointFor(mediaType), id)
	found, err := c.getJSON(ctx, "similar_"+endpointFor(mediaType), path, url.Values{"page": {strconv.Itoa(1)}}, &page)
	if err != nil || !found {
		return nil, err
	}
	for i := range page.Results {
		page.Results[i].mediaType = mediaType
	}
	return page.Results, nil
}

func (d tmdbDetails) toMatch(mediaType string) *models.CatalogMatch {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = strings.TrimSpace(d.Name)
	}
	original := strings.TrimSpace(d.OriginalTitle)
	if original == "" {
		original = strings.TrimSpace(d.OriginalName)
	}
	date := strings.TrimSpace(d.ReleaseDate)
	if date == "" {
		date = strings.TrimSpace(d.FirstAirDate)
	}
	runtime := d.Runtime
	if runtime == 0 && len(d.EpisodeRunTime) > 0 {
		runtime = d.EpisodeRunTime[0]
	}

	m := &models.CatalogMatch{
		TMDBID:           d.ID,
		MediaType:        mediaType,
		Title:            title,
		OriginalTitle:    original,
		OriginalLanguage: d.OriginalLanguage,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		ReleaseDate:      date,
		Runtime:          runtime,
		Popularity:       d.Popularity,
		Genres:           make([]string, 0, len(d.Genres)),
		Cast:             make([]models.CastMember, 0, topCredits),
		Crew:             make([]models.CrewMember, 0, topCredits),
	}
	for _, g := range d.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			m.Genres = append(m.Genres, name)
		}
	}
	for _, c := range d.Credits.Cast {
		if len(m.Cast) == topCredits {
			break
		}
		m.Cast = append(m.Cast, models.CastMember{Name: c.Name, Character: c.Character})
	}
	for _, c := range d.Credits.Crew {
		if len(m.Crew) == topCredits {
			break
		}
		m.Crew = append(m.Crew, models.CrewMember{Name: c.Name, Job: c.Job})
	}
	return m
}

// toMatch converts a search/similar entry into a match without credits.
func (r tmdbResult) toMatch() *models.CatalogMatch {
	return &models.CatalogMatch{
		TMDBID:           r.ID,
		MediaType:        r.mediaType,
		Title:            r.displayTitle(),
		OriginalTitle:    r.originalTitle(),
		OriginalLanguage: r.OriginalLanguage,
		Overview:         r.Overview,
		PosterPath:       r.PosterPath,
		BackdropPath:     r.BackdropPath,
		ReleaseDate:      r.date(),
		Popularity:       r.Popularity,
		Genres:           genreNames(r.mediaType, r.GenreIDs),
		Cast:             []models.CastMember{},
		Crew:             []models.CrewMember{},
	}
}
