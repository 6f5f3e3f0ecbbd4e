package recommend

import (
	"fmt"
	"strings"

	"curator/models"
	"curator/services/music"
)

// PageSize is how many recommendations one page asks for.
const PageSize = 5

// pageRange returns the 1-based first and last ranked items for a page.
func pageRange(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize
	return offset + 1, offset + PageSize
}

func orAny(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "Any"
	}
	return s
}

func joinOrAny(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			cleaned = append(cleaned, it)
		}
	}
	if len(cleaned) == 0 {
		return "Any"
	}
	return strings.Join(cleaned, ", ")
}

func contentNoun(prefs models.Preferences) (plural, singular string) {
	switch prefs.MediaType() {
	case models.MediaTypeTVSeries:
		return "TV series", "TV series"
	case models.MediaTypeMusic:
		return "songs", "song"
	default:
		return "movies", "movie"
	}
}

func regionClause(region string) string {
	switch region {
	case models.RegionHollywood:
		return "Only recommend Hollywood (English-language) titles."
	case models.RegionBollywood:
		return "Only recommend Bollywood (Hindi-language) titles."
	}
	return ""
}

func writeExclusions(b *strings.Builder, label string, titles []string) {
	var kept []string
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return
	}
	fmt.Fprintf(b, "Do NOT recommend any of these %s: %s\n", label, strings.Join(kept, "; "))
}

// BuildPrompt renders the film/TV prompt.
func BuildPrompt(in Input) string {
	prefs := in.Preferences
	plural, singular := contentNoun(prefs)
	page := prefs.PageOrDefault()
	first, last := pageRange(page)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s recommendation expert. Based on the following information, recommend %d %s that would match the user's taste. Return ONLY a valid JSON object with no additional text or formatting.\n\n",
		singular, PageSize, plural)
	b.WriteString("Input:\n")
	fmt.Fprintf(&b, "Liked %s: %s\n", plural, strings.Join(in.Liked, ", "))
	b.WriteString("Preferences:\n")
	fmt.Fprintf(&b, "- Genres: %s\n", joinOrAny(prefs.Genres))
	fmt.Fprintf(&b, "- Language: %s\n", orAny(prefs.Language))
	fmt.Fprintf(&b, "- Mood: %s\n", orAny(prefs.Mood))
	fmt.Fprintf(&b, "- Page: %d\n\n", page)
	if clause := regionClause(prefs.RegionOrAny()); clause != "" {
		b.WriteString(clause + "\n")
	}
	fmt.Fprintf(&b, "Important: For each page, recommend DIFFERENT %s that haven't been recommended before. This is page %d, so recommend %s %d to %d in your ranked list of recommendations.\n",
		plural, page, plural, first, last)
	writeExclusions(&b, "already recommended titles", in.AlreadyRecommended)
	writeExclusions(&b, "excluded titles", in.Excluded)
	fmt.Fprintf(&b, `
Return a JSON object in this exact format:
{
    "recommendations": [
        {
            "title": "Title",
            "type": "%s",
            "year": "YYYY",
            "reasoning": "Why this matches the user's taste",
            "genres": ["genre1", "genre2"],
            "mood": "mood of the title"
        }
    ]
}

Important: Return ONLY the JSON object, no additional text, no markdown formatting, no backticks.`, mediaTypeFor(prefs))
	return b.String()
}

// mediaTypeFor is the "type" value shown in the reply contract. Without a
// content-type preference the model chooses per title.
func mediaTypeFor(prefs models.Preferences) string {
	if mt := prefs.MediaType(); mt != "" {
		return mt
	}
	return models.MediaTypeMovie + "|" + models.MediaTypeTVSeries
}

// BuildMusicPrompt renders the song prompt around the parsed first liked track.
func BuildMusicPrompt(in Input, seed music.Track) string {
	prefs := in.Preferences
	page := prefs.PageOrDefault()
	first, last := pageRange(page)
	artist := seed.Artist
	if artist == "" {
		artist = music.UnknownArtist
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a music recommendation expert. Based on the following information, recommend %d songs that would match the user's taste. Return ONLY a valid JSON object with no additional text or formatting.\n\n", PageSize)
	b.WriteString("Input:\n")
	fmt.Fprintf(&b, "Liked Song: %q by %s\n", seed.Title, artist)
	if len(in.Liked) > 1 {
		fmt.Fprintf(&b, "Other liked songs: %s\n", strings.Join(in.Liked[1:], ", "))
	}
	b.WriteString("Preferences:\n")
	fmt.Fprintf(&b, "- Genres: %s\n", joinOrAny(prefs.Genres))
	fmt.Fprintf(&b, "- Mood: %s\n", orAny(prefs.Mood))
	fmt.Fprintf(&b, "- Language: %s\n", orAny(prefs.Language))
	fmt.Fprintf(&b, "- Page: %d\n\n", page)
	fmt.Fprintf(&b, "Important Guidelines:\n1. Recommend songs similar to %q by %s\n2. Include a mix of popular and underrated tracks\n3. Consider the user's preferred genres and mood if specified\n", seed.Title, artist)
	fmt.Fprintf(&b, "4. This is page %d, so recommend songs %d to %d in your ranked list of recommendations.\n", page, first, last)
	writeExclusions(&b, "already recommended songs", in.AlreadyRecommended)
	writeExclusions(&b, "excluded songs", in.Excluded)
	b.WriteString(`
Return a JSON object in this exact format:
{
    "recommendations": [
        {
            "title": "Song Title",
            "artist": "Artist Name",
            "year": "YYYY",
            "reasoning": "Why this song matches the user's taste",
            "tags": ["genre1", "genre2", "mood1"]
        }
    ]
}

Important: Return ONLY the JSON object, no additional text, no markdown formatting, no backticks.`)
	return b.String()
}

// BuildArtistPrompt asks the model to name the performer of a song title.
func BuildArtistPrompt(title string) string {
	return fmt.Sprintf("Who is the artist of the song %q? Reply with only the artist name. If you do not know, reply with Unknown.", strings.TrimSpace(title))
}
