package catalog

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// NormalizeTitle reduces a title to a comparable key: transliterated to ASCII,
// case-folded, punctuation removed and whitespace collapsed.
// "Amélie!" and "amelie" normalize to the same key.
func NormalizeTitle(title string) string {
	s := strings.TrimSpace(title)
	if s == "" {
		return ""
	}
	s = unidecode.Unidecode(s)
	s = folder.String(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// releaseYear returns the leading four-digit year of a YYYY-MM-DD date, or "".
func releaseYear(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	y := date[:4]
	for _, r := range y {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return y
}

// normalizeYear extracts a four-digit year from free text such as "2010", "2010-07-16" or "(2010)".
func normalizeYear(value string) string {
	value = strings.TrimSpace(value)
	for i := 0; i+4 <= len(value); i++ {
		if y := releaseYear(value[i:]); y != "" {
			return y
		}
	}
	return ""
}
