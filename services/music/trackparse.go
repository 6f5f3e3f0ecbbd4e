package music

import (
	"context"
	"strings"
)

// UnknownArtist is used when no strategy can name the artist.
const UnknownArtist = "Unknown Artist"

// Track is a song split into title and artist. Artist may be empty.
type Track struct {
	Title  string
	Artist string
}

// Strategy is one way of splitting free-text song input. Strategies are tried
// in order and the first that reports ok wins.
type Strategy interface {
	Parse(ctx context.Context, input string) (Track, bool)
}

// SeparatorSplit splits on the last occurrence of Sep. By default the title is
// on the left ("Title by Artist"); ArtistFirst flips it ("Artist - Title").
type SeparatorSplit struct {
	Sep         string
	ArtistFirst bool
}

func (s SeparatorSplit) Parse(_ context.Context, input string) (Track, bool) {
	if s.Sep == "" {
		return Track{}, false
	}
	haystack, sep := input, s.Sep
	if lower := strings.ToLower(input); len(lower) == len(input) {
		haystack, sep = lower, strings.ToLower(s.Sep)
	}
	i := strings.LastIndex(haystack, sep)
	if i < 0 {
		return Track{}, false
	}
	left := strings.TrimSpace(input[:i])
	right := strings.TrimSpace(input[i+len(s.Sep):])
	if left == "" || right == "" {
		return Track{}, false
	}
	if s.ArtistFirst {
		return Track{Title: right, Artist: left}, true
	}
	return Track{Title: left, Artist: right}, true
}

// PositionalGuess treats the last two words as the artist when the input has
// more than two words: "Blinding Lights The Weeknd".
type PositionalGuess struct{}

func (PositionalGuess) Parse(_ context.Context, input string) (Track, bool) {
	words := strings.Fields(input)
	if len(words) <= 2 {
		return Track{}, false
	}
	return Track{
		Title:  strings.Join(words[:len(words)-2], " "),
		Artist: strings.Join(words[len(words)-2:], " "),
	}, true
}

// ArtistLookup names the artist of a song title, typically by asking the model.
type ArtistLookup interface {
	IdentifyArtist(ctx context.Context, title string) (string, error)
}

// ModelLookup asks an ArtistLookup and substitutes UnknownArtist when it fails.
// It never declines once configured.
type ModelLookup struct {
	Lookup ArtistLookup
}

func (m ModelLookup) Parse(ctx context.Context, input string) (Track, bool) {
	if m.Lookup == nil {
		return Track{}, false
	}
	title := strings.TrimSpace(input)
	artist, err := m.Lookup.IdentifyArtist(ctx, title)
	artist = strings.TrimSpace(artist)
	if err != nil || artist == "" {
		return Track{Title: title, Artist: UnknownArtist}, true
	}
	return Track{Title: title, Artist: artist}, true
}

// Unknown keeps the whole input as the title.
type Unknown struct{}

func (Unknown) Parse(_ context.Context, input string) (Track, bool) {
	return Track{Title: strings.TrimSpace(input)}, true
}

// DefaultStrategies returns the parsing order used for liked songs.
// lookup may be nil to skip the model call.
func DefaultStrategies(lookup ArtistLookup) []Strategy {
	strategies := []Strategy{
		SeparatorSplit{Sep: " by "},
		SeparatorSplit{Sep: " - ", ArtistFirst: true},
		PositionalGuess{},
	}
	if lookup != nil {
		strategies = append(strategies, ModelLookup{Lookup: lookup})
	}
	return append(strategies, Unknown{})
}

// ParseTrack runs strategies in order over input.
func ParseTrack(ctx context.Context, input string, strategies []Strategy) Track {
	input = strings.TrimSpace(input)
	for _, s := range strategies {
		if t, ok := s.Parse(ctx, input); ok {
			return t
		}
	}
	return Track{Title: input}
}

// SplitSimple applies only the separator strategies, without guessing. It is
// used where a wrong artist is worse than none, such as the Last.fm fallback.
func SplitSimple(input string) Track {
	return ParseTrack(context.Background(), input, []Strategy{
		SeparatorSplit{Sep: " by "},
		SeparatorSplit{Sep: " - ", ArtistFirst: true},
		Unknown{},
	})
}
