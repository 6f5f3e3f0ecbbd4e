package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"curator/models"
)

func TestFilterRecommendations(t *testing.T) {
	excluded := NewExclusionSet([]string{"  INCEPTION "}, []string{"Heat", ""})
	recs := []models.EnrichedRecommendation{
		{Title: "Inception"},
		{Title: "Ronin"},
		{Title: "  "},
		{Title: "heat "},
		{Title: "RONIN"},
		{Title: "Thief", Tags: []string{"Crime"}},
	}

	got := filterRecommendations(recs, excluded)
	assert.Len(t, got, 2)
	assert.Equal(t, "Ronin", got[0].Title)
	assert.NotNil(t, got[0].Tags)
	assert.Equal(t, "Thief", got[1].Title)
	assert.Equal(t, []string{"Crime"}, got[1].Tags)
}

func TestExclusionSetContains(t *testing.T) {
	set := NewExclusionSet([]string{"The Matrix"})
	assert.True(t, set.Contains(" the matrix"))
	assert.False(t, set.Contains("Matrix"))
	assert.False(t, NewExclusionSet().Contains("anything"))
}
