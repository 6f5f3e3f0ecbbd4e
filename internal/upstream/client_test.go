package upstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestGetEncodesParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Blade Runner", r.URL.Query().Get("query"))
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), DefaultBreakerSettings())
	resp, err := c.Get(context.Background(), "search", srv.URL+"/search", url.Values{"query": {"Blade Runner"}, "api_key": {"k"}})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestGetReturnsNotFoundAsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), DefaultBreakerSettings())
	resp, err := c.Get(context.Background(), "details", srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestGetServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), DefaultBreakerSettings())
	_, err := c.Get(context.Background(), "details", srv.URL, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, "upstream down", se.Snippet)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	httpc := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: io.NopCloser(bytes.NewBufferString("x")), Header: make(http.Header)}, nil
	})}

	c := NewClient("flaky", httpc, BreakerSettings{MinRequests: 2, FailureRatio: 0.5, OpenTimeout: time.Hour})
	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), "search", "http://flaky.invalid/", nil)
		require.Error(t, err)
	}

	_, err := c.Get(context.Background(), "search", "http://flaky.invalid/", nil)
	assert.True(t, errors.Is(err, ErrCircuitOpen), "expected open circuit, got %v", err)
	assert.Equal(t, int32(2), calls.Load())
}
