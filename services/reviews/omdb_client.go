// Package reviews looks up editorial review data (IMDb rating, plot, awards,
// box office) from OMDb by title.
package reviews

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
	"github.com/rs/zerolog"

	"curator/config"
	"curator/internal/logging"
	"curator/internal/upstream"
	"curator/models"
)

var ErrNotConfigured = errors.New("omdb api key not configured")

const notAvailable = "N/A"

type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	IMDBID     string `json:"imdbID"`
	IMDBRating string `json:"imdbRating"`
	Plot       string `json:"Plot"`
	Awards     string `json:"Awards"`
	BoxOffice  string `json:"BoxOffice"`
}

// Client queries OMDb's title endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *upstream.Client
	log     zerolog.Logger
}

func NewClient(cfg config.OMDBConfig, httpc *http.Client) *Client {
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: cfg.BaseURL,
		http:    upstream.NewClient("omdb", httpc, upstream.DefaultBreakerSettings()),
		log:     logging.WithComponent("reviews"),
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Lookup fetches the review record for a title. year and mediaType narrow the
// search when set. A "not found" answer from OMDb yields (nil, nil).
func (c *Client) Lookup(ctx context.Context, title, year, mediaType string) (*models.SecondaryRecord, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	params := url.Values{
		"apikey": {c.apiKey},
		"t":      {title},
	}
	if y := strings.TrimSpace(year); len(y) >= 4 {
		params.Set("y", y[:4])
	}
	switch mediaType {
	case models.MediaTypeMovie:
		params.Set("type", "movie")
	case models.MediaTypeTVSeries:
		params.Set("type", "series")
	}

	resp, err := c.http.Get(ctx, "title", c.baseURL, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !resp.OK() {
		return nil, fmt.Errorf("omdb lookup failed: status %d", resp.StatusCode)
	}

	var body omdbResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	if strings.EqualFold(body.Response, "False") {
		c.log.Debug().Str("title", title).Str("reason", body.Error).Msg("omdb has no record")
		return nil, nil
	}
	return body.toRecord(), nil
}

func (r omdbResponse) toRecord() *models.SecondaryRecord {
	rec := &models.SecondaryRecord{
		IMDBID:    available(r.IMDBID),
		Plot:      available(r.Plot),
		Awards:    available(r.Awards),
		BoxOffice: available(r.BoxOffice),
	}
	if v := available(r.IMDBRating); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rec.IMDBRating = &f
		}
	}
	return rec
}

func available(s string) string {
	s = strings.TrimSpace(s)
	if s == notAvailable {
		return ""
	}
	return s
}
