package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"curator/models"
)

// ErrDecode wraps every failure to turn model text into recommendations.
var ErrDecode = errors.New("decode model response")

var fenceRe = regexp.MustCompile("```(?:json|JSON)?\\s*\\n?|\\n?```")

// StripFences removes markdown code fences the model sometimes wraps JSON in.
func StripFences(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// DecodeRecommendations parses a model reply of the form {"recommendations": [...]}.
// Fences and surrounding whitespace are tolerated; a missing or non-array
// "recommendations" field is a decode error. Entries without a title are dropped.
func DecodeRecommendations(raw string) ([]models.Candidate, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty text", ErrDecode)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v (raw: %s)", ErrDecode, err, snippet(cleaned, 200))
	}
	field, ok := envelope["recommendations"]
	if !ok {
		return nil, fmt.Errorf("%w: missing recommendations field", ErrDecode)
	}
	trimmed := strings.TrimSpace(string(field))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: recommendations is not an array", ErrDecode)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(field, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		var c models.Candidate
		if err := json.Unmarshal(item, &c); err != nil {
			// one malformed entry should not discard the rest
			continue
		}
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// DecodeArtist extracts an artist name from a short free-text model reply.
// Replies such as `"Ed Sheeran"` or `Artist: Ed Sheeran` are accepted.
func DecodeArtist(raw string) (string, error) {
	s := StripFences(raw)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(strings.ToLower(s), "artist:"); i >= 0 {
		s = s[i+len("artist:"):]
	}
	s = strings.Trim(strings.TrimSpace(s), `"'.`)
	if s == "" || strings.EqualFold(s, "unknown") {
		return "", fmt.Errorf("%w: no artist in reply", ErrDecode)
	}
	return s, nil
}

// snippet returns at most n runes of s for error messages.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
