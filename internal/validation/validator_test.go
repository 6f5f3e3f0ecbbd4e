package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/models"
)

func validRequest() *models.RecommendRequest {
	return &models.RecommendRequest{
		LikedMovies: []string{"Heat"},
		Preferences: &models.Preferences{Genres: []string{"Crime"}, ContentType: "movies", Region: "hollywood", Page: 2},
	}
}

func TestValidatorSingleton(t *testing.T) {
	assert.Same(t, Validator(), Validator())
}

func TestStructAcceptsValidRequest(t *testing.T) {
	assert.NoError(t, Struct(validRequest()))

	minimal := &models.RecommendRequest{LikedMovies: []string{"Heat"}, Preferences: &models.Preferences{}}
	assert.NoError(t, Struct(minimal))
}

func TestStructRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.RecommendRequest)
		field   string
		message string
	}{
		{
			name:    "missing liked items",
			mutate:  func(r *models.RecommendRequest) { r.LikedMovies = nil },
			field:   "likedMovies",
			message: "likedMovies is required",
		},
		{
			name:    "empty liked items",
			mutate:  func(r *models.RecommendRequest) { r.LikedMovies = []string{} },
			field:   "likedMovies",
			message: "likedMovies must contain at least 1 item(s)",
		},
		{
			name:    "blank liked item",
			mutate:  func(r *models.RecommendRequest) { r.LikedMovies = []string{"Heat", "  "} },
			field:   "likedMovies[1]",
			message: "likedMovies[1] must not be blank",
		},
		{
			name:    "missing preferences",
			mutate:  func(r *models.RecommendRequest) { r.Preferences = nil },
			field:   "preferences",
			message: "preferences is required",
		},
		{
			name:    "bad content type",
			mutate:  func(r *models.RecommendRequest) { r.Preferences.ContentType = "podcasts" },
			field:   "preferences.contentType",
			message: "preferences.contentType must be one of: movies movie tv_series music",
		},
		{
			name:    "bad region",
			mutate:  func(r *models.RecommendRequest) { r.Preferences.Region = "tollywood" },
			field:   "preferences.region",
			message: "preferences.region must be one of: hollywood bollywood any",
		},
		{
			name:    "negative page",
			mutate:  func(r *models.RecommendRequest) { r.Preferences.Page = -1 },
			field:   "preferences.page",
			message: "preferences.page must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := Struct(req)
			var rerr *RequestError
			require.True(t, errors.As(err, &rerr))
			require.Len(t, rerr.Fields, 1)
			assert.Equal(t, tt.field, rerr.Fields[0].Field)
			assert.Equal(t, tt.message, rerr.Error())
		})
	}
}
