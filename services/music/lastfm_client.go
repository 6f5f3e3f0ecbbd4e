// Package music talks to Last.fm for track metadata and similarity, and splits
// free-text song input into title and artist.
package music

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"curator/config"
	"curator/internal/logging"
	"curator/internal/upstream"
)

var ErrNotConfigured = errors.New("lastfm api key not configured")

// Last.fm error 6 is "Track not found" / "Invalid parameters" for unknown items.
const lastfmNotFound = 6

// preferredImage is the index of the "extralarge" entry in Last.fm image lists.
const preferredImage = 3

// TrackInfo is the subset of a Last.fm track used for enrichment.
type TrackInfo struct {
	Title       string
	Artist      string
	Listeners   string
	Image       string
	Description string
	Tags        []string
}

// Client wraps the Last.fm 2.0 REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *upstream.Client
	log     zerolog.Logger
}

func NewClient(cfg config.LastFMConfig, httpc *http.Client) *Client {
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
		http:    upstream.NewClient("lastfm", httpc, upstream.DefaultBreakerSettings()),
		log:     logging.WithComponent("lastfm"),
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// call runs one API method and returns the parsed body, or an empty result for
// Last.fm's not-found error.
func (c *Client) call(ctx context.Context, method string, params url.Values) (gjson.Result, error) {
	if !c.Configured() {
		return gjson.Result{}, ErrNotConfigured
	}
	params.Set("method", method)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	resp, err := c.http.Get(ctx, method, c.baseURL, params)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, fmt.Errorf("lastfm %s: invalid json (status %d)", method, resp.StatusCode)
	}
	body := gjson.ParseBytes(resp.Body)
	if code := body.Get("error"); code.Exists() {
		if code.Int() == lastfmNotFound {
			return gjson.Result{}, nil
		}
		return gjson.Result{}, fmt.Errorf("lastfm %s: error %d: %s", method, code.Int(), body.Get("message").String())
	}
	if !resp.OK() {
		return gjson.Result{}, fmt.Errorf("lastfm %s failed: status %d", method, resp.StatusCode)
	}
	return body, nil
}

// TrackInfo calls track.getInfo. An unknown track yields (nil, nil).
func (c *Client) TrackInfo(ctx context.Context, track, artist string) (*TrackInfo, error) {
	params := url.Values{"track": {strings.TrimSpace(track)}, "autocorrect": {"1"}}
	if a := strings.TrimSpace(artist); a != "" {
		params.Set("artist", a)
	}
	body, err := c.call(ctx, "track.getInfo", params)
	if err != nil {
		return nil, err
	}
	t := body.Get("track")
	if !t.Exists() || strings.TrimSpace(t.Get("name").String()) == "" {
		return nil, nil
	}
	info := parseTrack(t)
	info.Description = wikiText(t.Get("wiki"))
	each(t.Get("toptags.tag"), func(tag gjson.Result) {
		if name := strings.TrimSpace(tag.Get("name").String()); name != "" {
			info.Tags = append(info.Tags, name)
		}
	})
	return &info, nil
}

// Similar calls track.getSimilar.
func (c *Client) Similar(ctx context.Context, track, artist string, limit int) ([]TrackInfo, error) {
	params := url.Values{"track": {strings.TrimSpace(track)}, "autocorrect": {"1"}}
	if a := strings.TrimSpace(artist); a != "" {
		params.Set("artist", a)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.call(ctx, "track.getSimilar", params)
	if err != nil {
		return nil, err
	}
	return parseTrackList(body.Get("similartracks.track"), limit), nil
}

// TopTracksByTag calls tag.getTopTracks.
func (c *Client) TopTracksByTag(ctx context.Context, tag string, limit int) ([]TrackInfo, error) {
	params := url.Values{"tag": {strings.TrimSpace(tag)}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.call(ctx, "tag.getTopTracks", params)
	if err != nil {
		return nil, err
	}
	return parseTrackList(body.Get("tracks.track"), limit), nil
}

func parseTrackList(list gjson.Result, limit int) []TrackInfo {
	var out []TrackInfo
	each(list, func(t gjson.Result) {
		if limit > 0 && len(out) >= limit {
			return
		}
		info := parseTrack(t)
		if info.Title == "" {
			return
		}
		out = append(out, info)
	})
	return out
}

func parseTrack(t gjson.Result) TrackInfo {
	return TrackInfo{
		Title:     strings.TrimSpace(t.Get("name").String()),
		Artist:    artistName(t.Get("artist")),
		Listeners: strings.TrimSpace(t.Get("listeners").String()),
		Image:     imageURL(t.Get("image")),
	}
}

// artistName accepts both {"name": ...} and {"#text": ...} objects and bare strings.
func artistName(a gjson.Result) string {
	if a.IsObject() {
		m := a.Map()
		if n := strings.TrimSpace(m["name"].String()); n != "" {
			return n
		}
		return strings.TrimSpace(m["#text"].String())
	}
	return strings.TrimSpace(a.String())
}

// imageURL prefers the extralarge image and falls back to the largest non-empty one.
func imageURL(images gjson.Result) string {
	var urls []string
	each(images, func(img gjson.Result) {
		urls = append(urls, strings.TrimSpace(img.Map()["#text"].String()))
	})
	if len(urls) > preferredImage && urls[preferredImage] != "" {
		return urls[preferredImage]
	}
	for i := len(urls) - 1; i >= 0; i-- {
		if urls[i] != "" {
			return urls[i]
		}
	}
	return ""
}

// wikiText returns the wiki body without Last.fm's trailing "Read more" link.
func wikiText(wiki gjson.Result) string {
	text := strings.TrimSpace(wiki.Get("content").String())
	if text == "" {
		text = strings.TrimSpace(wiki.Get("summary").String())
	}
	if i := strings.Index(text, "<a href"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return text
}

// each iterates a Last.fm list, which collapses to a bare object when it has one element.
func each(r gjson.Result, fn func(gjson.Result)) {
	switch {
	case r.IsArray():
		r.ForEach(func(_, v gjson.Result) bool {
			fn(v)
			return true
		})
	case r.IsObject():
		fn(r)
	}
}
