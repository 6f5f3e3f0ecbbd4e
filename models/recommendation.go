package models

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Content types accepted in Preferences.ContentType.
const (
	ContentTypeMovies   = "movies"
	ContentTypeMovie    = "movie"
	ContentTypeTVSeries = "tv_series"
	ContentTypeMusic    = "music"
)

// Regions accepted in Preferences.Region.
const (
	RegionAny       = "any"
	RegionHollywood = "hollywood"
	RegionBollywood = "bollywood"
)

// Media types attached to candidates and catalog matches.
const (
	MediaTypeMovie    = "movie"
	MediaTypeTVSeries = "tv_series"
	MediaTypeMusic    = "music"
)

// Preferences narrows what the model is asked for and how catalog matches are chosen.
type Preferences struct {
	Genres      []string `json:"genres"`
	Mood        string   `json:"mood,omitempty"`
	Language    string   `json:"language,omitempty"`
	ContentType string   `json:"contentType,omitempty" validate:"omitempty,oneof=movies movie tv_series music"`
	Region      string   `json:"region,omitempty" validate:"omitempty,oneof=hollywood bollywood any"`
	Page        int      `json:"page,omitempty" validate:"gte=0"`
}

// PageOrDefault returns the requested page, treating anything below 1 as the first page.
func (p Preferences) PageOrDefault() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// IsMusic reports whether the caller asked for songs.
func (p Preferences) IsMusic() bool {
	return strings.EqualFold(strings.TrimSpace(p.ContentType), ContentTypeMusic)
}

// MediaType maps the content-type preference onto a catalog media type ("" when unconstrained).
func (p Preferences) MediaType() string {
	switch strings.ToLower(strings.TrimSpace(p.ContentType)) {
	case ContentTypeMovies, ContentTypeMovie:
		return MediaTypeMovie
	case ContentTypeTVSeries:
		return MediaTypeTVSeries
	case ContentTypeMusic:
		return MediaTypeMusic
	}
	return ""
}

// RegionOrAny returns the normalized region preference.
func (p Preferences) RegionOrAny() string {
	r := strings.ToLower(strings.TrimSpace(p.Region))
	if r == "" {
		return RegionAny
	}
	return r
}

// RecommendRequest is the inbound POST body.
type RecommendRequest struct {
	LikedMovies        []string     `json:"likedMovies" validate:"required,min=1,dive,notblank"`
	Preferences        *Preferences `json:"preferences" validate:"required"`
	AlreadyRecommended []string     `json:"alreadyRecommended,omitempty"`
	ExcludeMovies      []string     `json:"excludeMovies,omitempty"`
}

// RecommendResponse is returned on success, including the empty case.
type RecommendResponse struct {
	Recommendations []EnrichedRecommendation `json:"recommendations"`
	Message         string                   `json:"message,omitempty"`
}

// FlexString accepts either a JSON string or a JSON number. Models are inconsistent
// about quoting years.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(unquoted))
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return err
	}
	*f = FlexString(raw)
	return nil
}

func (f FlexString) String() string { return string(f) }

// Candidate is a model-proposed recommendation before enrichment.
type Candidate struct {
	Title     string     `json:"title"`
	Type      string     `json:"type,omitempty"`
	MediaType string     `json:"mediaType,omitempty"`
	Year      FlexString `json:"year,omitempty"`
	Reasoning string     `json:"reasoning"`
	Tags      []string   `json:"tags,omitempty"`
	Genres    []string   `json:"genres,omitempty"`
	Mood      string     `json:"mood,omitempty"`
	Artist    string     `json:"artist,omitempty"`
}

// Kind returns the candidate's media type, preferring the explicit type field.
func (c Candidate) Kind() string {
	for _, v := range []string{c.Type, c.MediaType} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "movie", "movies", "film":
			return MediaTypeMovie
		case "tv", "tv_series", "series", "show", "tv show":
			return MediaTypeTVSeries
		case "music", "song", "track":
			return MediaTypeMusic
		}
	}
	return ""
}

// CastMember is one of the top-billed performers of a catalog match.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

// CrewMember is one of the first crew credits of a catalog match.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// CatalogMatch is the resolved TMDB record for a candidate.
type CatalogMatch struct {
	TMDBID           int64        `json:"tmdb_id"`
	MediaType        string       `json:"media_type"`
	Title            string       `json:"title"`
	OriginalTitle    string       `json:"original_title,omitempty"`
	OriginalLanguage string       `json:"original_language,omitempty"`
	Overview         string       `json:"overview,omitempty"`
	PosterPath       string       `json:"poster_path,omitempty"`
	BackdropPath     string       `json:"backdrop_path,omitempty"`
	ReleaseDate      string       `json:"release_date,omitempty"`
	Runtime          int          `json:"runtime,omitempty"`
	Popularity       float64      `json:"popularity,omitempty"`
	Genres           []string     `json:"genres"`
	Cast             []CastMember `json:"cast"`
	Crew             []CrewMember `json:"crew"`
}

// SecondaryRecord is review metadata from OMDb.
type SecondaryRecord struct {
	IMDBID     string   `json:"imdb_id,omitempty"`
	IMDBRating *float64 `json:"imdb_rating,omitempty"`
	Plot       string   `json:"plot,omitempty"`
	Awards     string   `json:"awards,omitempty"`
	BoxOffice  string   `json:"box_office,omitempty"`
}

// TrackRef identifies a song by title and artist.
type TrackRef struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// EnrichedRecommendation is a candidate merged with catalog and review data.
// It is the unit returned to callers.
type EnrichedRecommendation struct {
	Title     string   `json:"title"`
	Type      string   `json:"type,omitempty"`
	Year      string   `json:"year,omitempty"`
	Reasoning string   `json:"reasoning"`
	Tags      []string `json:"tags"`
	Mood      string   `json:"mood,omitempty"`
	Artist    string   `json:"artist,omitempty"`

	TMDBData    *CatalogMatch    `json:"tmdb_data"`
	OMDBData    *SecondaryRecord `json:"omdb_data"`
	PosterURL   string           `json:"poster_url,omitempty"`
	BackdropURL string           `json:"backdrop_url,omitempty"`

	// Music only.
	Listeners     string     `json:"listeners,omitempty"`
	Image         string     `json:"image,omitempty"`
	Description   string     `json:"description,omitempty"`
	SimilarTracks []TrackRef `json:"similarTracks,omitempty"`
}

// NewEnrichedRecommendation copies the candidate fields onto a fresh result.
func NewEnrichedRecommendation(c Candidate) EnrichedRecommendation {
	tags := c.Tags
	if len(tags) == 0 {
		tags = c.Genres
	}
	return EnrichedRecommendation{
		Title:     strings.TrimSpace(c.Title),
		Type:      c.Kind(),
		Year:      c.Year.String(),
		Reasoning: c.Reasoning,
		Tags:      append([]string(nil), tags...),
		Mood:      c.Mood,
		Artist:    strings.TrimSpace(c.Artist),
	}
}
