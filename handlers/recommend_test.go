package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/models"
	"curator/services/recommend"
)

type fakeRecommendService struct {
	resp *models.RecommendResponse
	err  error

	calls   int
	lastReq *models.RecommendRequest
}

func (f *fakeRecommendService) Recommend(_ context.Context, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	f.calls++
	f.lastReq = req
	return f.resp, f.err
}

func postRecommend(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRecommendSuccess(t *testing.T) {
	svc := &fakeRecommendService{resp: &models.RecommendResponse{
		Recommendations: []models.EnrichedRecommendation{{Title: "Heat", Tags: []string{}}},
	}}
	h := NewRecommendHandler(svc)

	rec := postRecommend(h.Recommend, `{"likedMovies":["Collateral"],"preferences":{"genres":["Crime"],"page":2},"excludeMovies":["Ronin"],"unknownField":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	recs := body["recommendations"].([]any)
	require.Len(t, recs, 1)
	first := recs[0].(map[string]any)
	assert.Equal(t, "Heat", first["title"])
	assert.Contains(t, first, "tmdb_data")
	assert.Nil(t, first["tmdb_data"])

	assert.Equal(t, []string{"Ronin"}, svc.lastReq.ExcludeMovies)
	assert.Equal(t, 2, svc.lastReq.Preferences.Page)
}

func TestRecommendValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"likedMovies":`, want: "invalid JSON body"},
		{name: "missing liked", body: `{"preferences":{}}`, want: "likedMovies is required"},
		{name: "empty liked", body: `{"likedMovies":[],"preferences":{}}`, want: "likedMovies must contain at least 1 item(s)"},
		{name: "missing preferences", body: `{"likedMovies":["Heat"]}`, want: "preferences is required"},
		{name: "bad content type", body: `{"likedMovies":["Heat"],"preferences":{"contentType":"books"}}`, want: "preferences.contentType must be one of"},
		{name: "bad region", body: `{"likedMovies":["Heat"],"preferences":{"region":"mars"}}`, want: "preferences.region must be one of"},
		{name: "negative page", body: `{"likedMovies":["Heat"],"preferences":{"page":-3}}`, want: "preferences.page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRecommendService{}
			rec := postRecommend(NewRecommendHandler(svc).Recommend, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["error"], tt.want)
			assert.Zero(t, svc.calls, "no pipeline call on invalid input")
		})
	}
}

func TestRecommendPipelineFailure(t *testing.T) {
	svc := &fakeRecommendService{err: errors.New("recommendation model unavailable: dial tcp: refused")}
	rec := postRecommend(NewRecommendHandler(svc).Recommend, `{"likedMovies":["Heat"],"preferences":{}}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to generate recommendations", body["error"])
	assert.Equal(t, "recommendation model unavailable: dial tcp: refused", body["details"])
}

func TestRecommendNoLikedItemsIsBadRequest(t *testing.T) {
	svc := &fakeRecommendService{err: recommend.ErrNoLikedItems}
	rec := postRecommend(NewRecommendHandler(svc).Recommend, `{"likedMovies":["Heat"],"preferences":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendMusicForcesContentType(t *testing.T) {
	svc := &fakeRecommendService{err: errors.New("boom")}
	rec := postRecommend(NewRecommendHandler(svc).RecommendMusic, `{"likedMovies":["Shape of You by Ed Sheeran"],"preferences":{"contentType":"movies"}}`)

	assert.Equal(t, models.ContentTypeMusic, svc.lastReq.Preferences.ContentType)
	assert.Equal(t, "Failed to generate music recommendations", decodeBody(t, rec)["error"])
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestMethodNotAllowedAndPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodGet, "/api/recommend", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", decodeBody(t, rec)["error"])

	rec = httptest.NewRecorder()
	Preflight(rec, httptest.NewRequest(http.MethodOptions, "/api/recommend", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
