package reviews

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(status int, body string, seen *http.Request) *Client {
	httpc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if seen != nil {
			*seen = *r
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	})}
	return NewClient(config.OMDBConfig{APIKey: "omdb-key", BaseURL: "http://omdb.test/"}, httpc)
}

func TestLookupParsesRecord(t *testing.T) {
	var req http.Request
	c := newTestClient(http.StatusOK, `{"Response":"True","Title":"Heat","imdbID":"tt0113277","imdbRating":"8.3",
		"Plot":"A group of professional bank robbers...","Awards":"N/A","BoxOffice":"$67,436,818"}`, &req)

	rec, err := c.Lookup(context.Background(), "Heat", "1995-12-15", "movie")
	require.NoError(t, err)
	require.NotNil(t, rec)

	q := req.URL.Query()
	assert.Equal(t, "omdb-key", q.Get("apikey"))
	assert.Equal(t, "Heat", q.Get("t"))
	assert.Equal(t, "1995", q.Get("y"))
	assert.Equal(t, "movie", q.Get("type"))

	assert.Equal(t, "tt0113277", rec.IMDBID)
	require.NotNil(t, rec.IMDBRating)
	assert.InDelta(t, 8.3, *rec.IMDBRating, 0.001)
	assert.Equal(t, "", rec.Awards)
	assert.Equal(t, "$67,436,818", rec.BoxOffice)
}

func TestLookupSeriesType(t *testing.T) {
	var req http.Request
	c := newTestClient(http.StatusOK, `{"Response":"True","imdbRating":"N/A"}`, &req)

	rec, err := c.Lookup(context.Background(), "Sherlock", "", "tv_series")
	require.NoError(t, err)
	assert.Equal(t, "series", req.URL.Query().Get("type"))
	assert.Empty(t, req.URL.Query().Get("y"))
	assert.Nil(t, rec.IMDBRating)
}

func TestLookupNotFoundIsAbsent(t *testing.T) {
	c := newTestClient(http.StatusOK, `{"Response":"False","Error":"Movie not found!"}`, nil)
	rec, err := c.Lookup(context.Background(), "Nope", "", "")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLookupErrors(t *testing.T) {
	_, err := NewClient(config.OMDBConfig{}, nil).Lookup(context.Background(), "Heat", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = newTestClient(http.StatusBadGateway, `oops`, nil).Lookup(context.Background(), "Heat", "", "")
	assert.Error(t, err)

	_, err = newTestClient(http.StatusOK, `not json`, nil).Lookup(context.Background(), "Heat", "", "")
	assert.Error(t, err)
}
