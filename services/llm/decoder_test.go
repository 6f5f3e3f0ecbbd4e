package llm

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecommendations(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		titles  []string
		wantErr bool
	}{
		{
			name:   "plain object",
			raw:    `{"recommendations":[{"title":"Heat","reasoning":"crime"},{"title":"Ronin"}]}`,
			titles: []string{"Heat", "Ronin"},
		},
		{
			name:   "json fence",
			raw:    "```json\n{\"recommendations\":[{\"title\":\"Heat\"}]}\n```",
			titles: []string{"Heat"},
		},
		{
			name:   "bare fence with surrounding whitespace",
			raw:    "  \n```\n{\"recommendations\":[{\"title\":\"Heat\"}]}\n```  \n",
			titles: []string{"Heat"},
		},
		{
			name:   "entries without title dropped",
			raw:    `{"recommendations":[{"title":"  "},{"reasoning":"x"},{"title":"Alien"}]}`,
			titles: []string{"Alien"},
		},
		{
			name:   "empty array",
			raw:    `{"recommendations":[]}`,
			titles: []string{},
		},
		{name: "malformed json", raw: `{"recommendations":[{"title":"Heat"`, wantErr: true},
		{name: "missing field", raw: `{"items":[{"title":"Heat"}]}`, wantErr: true},
		{name: "field not array", raw: `{"recommendations":{"title":"Heat"}}`, wantErr: true},
		{name: "top-level array", raw: `[{"title":"Heat"}]`, wantErr: true},
		{name: "prose", raw: `Sorry, I can't help with that.`, wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecommendations(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrDecode))
				return
			}
			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, c := range got {
				titles = append(titles, c.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestDecodeRecommendationsFields(t *testing.T) {
	raw := `{"recommendations":[{"title":"Perfect","artist":"Ed Sheeran","year":2017,"reasoning":"same artist","tags":["pop","romantic"]},
	{"title":"Dil Chahta Hai","type":"movie","year":"2001","genres":["Comedy","Drama"],"mood":"light"}]}`

	got, err := DecodeRecommendations(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Ed Sheeran", got[0].Artist)
	assert.Equal(t, "2017", got[0].Year.String())
	assert.Equal(t, []string{"pop", "romantic"}, got[0].Tags)

	assert.Equal(t, "2001", got[1].Year.String())
	assert.Equal(t, "movie", got[1].Kind())
	assert.Equal(t, []string{"Comedy", "Drama"}, got[1].Genres)
	assert.Equal(t, "light", got[1].Mood)
}

func TestDecodeRecommendationsSkipsBadEntry(t *testing.T) {
	got, err := DecodeRecommendations(`{"recommendations":[{"title":"Heat","year":{"bad":1}},{"title":"Ronin"}]}`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ronin", got[0].Title)
}

func TestDecodeRecommendationsErrorKeepsValidUTF8(t *testing.T) {
	raw := strings.Repeat("€", 150) + "{not json"
	_, err := DecodeRecommendations(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Contains(t, err.Error(), strings.Repeat("€", 150))
}

func TestDecodeArtist(t *testing.T) {
	for raw, want := range map[string]string{
		`Ed Sheeran`:                "Ed Sheeran",
		`"Queen"`:                   "Queen",
		"Artist: Daft Punk.\nextra": "Daft Punk",
		"```\nA. R. Rahman\n```":    "A. R. Rahman",
	} {
		got, err := DecodeArtist(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "unknown", `""`} {
		_, err := DecodeArtist(raw)
		assert.ErrorIs(t, err, ErrDecode, raw)
	}
}
