package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/config"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc, attempts uint) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewGeminiClient(config.GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-2.0-flash",
		BaseURL:         srv.URL,
		Temperature:     0.7,
		MaxOutputTokens: 256,
		MaxAttempts:     attempts,
	}, srv.Client())
	c.minInterval = 0
	return c
}

func TestGenerateSendsPromptAndReturnsText(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "recommend please", body.Contents[0].Parts[0].Text)
		assert.Equal(t, 256, body.GenerationConfig.MaxOutputTokens)

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"recommendations\":"},{"text":"[]}"}]}}]}`))
	}, 1)

	text, err := c.Generate(context.Background(), "recommend please")
	require.NoError(t, err)
	assert.Equal(t, `{"recommendations":[]}`, text)
}

func TestGenerateNotConfigured(t *testing.T) {
	c := NewGeminiClient(config.GeminiConfig{}, nil)
	_, err := c.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenerateEmptyCandidates(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}, 1)
	_, err := c.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}, 3)

	_, err := c.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "400"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateSingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 1)

	_, err := c.Generate(context.Background(), "x")
	require.Error(t, err)
	var re *retryableError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateRetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}, 2)

	text, err := c.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), calls.Load())
}
