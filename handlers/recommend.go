package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"curator/internal/logging"
	"curator/internal/validation"
	"curator/models"
	"curator/services/recommend"
)

// maxRequestBody caps the POST body.
const maxRequestBody = 1 << 20

type recommendService interface {
	Recommend(context.Context, *models.RecommendRequest) (*models.RecommendResponse, error)
}

var _ recommendService = (*recommend.Service)(nil)

type RecommendHandler struct {
	Service recommendService
	log     zerolog.Logger
}

func NewRecommendHandler(s recommendService) *RecommendHandler {
	return &RecommendHandler{Service: s, log: logging.WithComponent("handlers")}
}

// Recommend serves POST /api/recommend. preferences.contentType selects film/TV or music.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

// RecommendMusic serves the music-only routes regardless of preferences.contentType.
func (h *RecommendHandler) RecommendMusic(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

func (h *RecommendHandler) serve(w http.ResponseWriter, r *http.Request, music bool) {
	log := logging.Ctx(r.Context(), h.log)

	var req models.RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body", "details": err.Error()})
		return
	}
	if err := validation.Struct(&req); err != nil {
		var verr *validation.RequestError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if music {
		req.Preferences.ContentType = models.ContentTypeMusic
	}

	resp, err := h.Service.Recommend(r.Context(), &req)
	if err != nil {
		if errors.Is(err, recommend.ErrNoLikedItems) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		msg := "Failed to generate recommendations"
		if req.Preferences.IsMusic() {
			msg = "Failed to generate music recommendations"
		}
		log.Error().Err(err).Strs("liked", req.LikedMovies).Msg("recommendation pipeline failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg, "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Preflight answers OPTIONS with an empty 200; CORS headers come from the router middleware.
func Preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// MethodNotAllowed answers any method a route does not serve.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
