// Package normalize turns raw spreadsheet cells into the search terms and
// typed values the catalog lookups work with.
package normalize

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// Unavailable marks a title or author that normalized to nothing.
	Unavailable = "No disponible"
	// CleanupError marks a general-profile normalization that faulted.
	CleanupError = "Error Limpieza"
	// RegistryCleanupError marks a registry-profile normalization that faulted.
	RegistryCleanupError = "Error Limpieza Titulo CG"

	maxTitleTokens  = 5
	maxAuthorTokens = 2
)

// stopwords are dropped from titles by the general profile only.
var stopwords = map[string]bool{
	"y": true, "de": true, "la": true, "el": true, "los": true, "las": true, "en": true,
	"del": true, "un": true, "una": true, "unos": true, "unas": true, "por": true, "para": true,
}

var (
	nonAlnum  = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	nonLetter = regexp.MustCompile(`[^a-zA-Z\s]`)
)

// Transliterate folds s to its closest ASCII spelling: accents are dropped
// and other scripts are romanized ("Война и мир" → "Voina i mir").
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return unidecode.Unidecode(s)
}

// NormalizeTitleAuthor builds the general-profile search terms used by the
// open catalog and by title comparison. It keeps case, strips stopwords from
// the title and caps the title at five tokens and the author at two.
func NormalizeTitleAuthor(title, author string) (cleanTitle, cleanAuthor string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Title/author normalization failed", "title", title, "author", author, "panic", fmt.Sprint(r))
			cleanTitle, cleanAuthor = CleanupError, CleanupError
		}
	}()

	cleanTitle = Unavailable
	if strings.TrimSpace(title) != "" {
		stripped := nonAlnum.ReplaceAllString(Transliterate(title), "")
		var words []string
		for _, w := range strings.Fields(stripped) {
			if stopwords[strings.ToLower(w)] {
				continue
			}
			words = append(words, w)
		}
		if joined := joinFirst(words, maxTitleTokens); joined != "" {
			cleanTitle = joined
		}
	}

	cleanAuthor = Unavailable
	if strings.TrimSpace(author) != "" {
		stripped := nonLetter.ReplaceAllString(Transliterate(author), "")
		if joined := joinFirst(strings.Fields(stripped), maxAuthorTokens); joined != "" {
			cleanAuthor = joined
		}
	}

	return cleanTitle, cleanAuthor
}

// NormalizeTitleForRegistry builds the registry-profile title: lower-cased
// before transliteration, stopwords kept, five tokens at most.
func NormalizeTitleForRegistry(title string) (clean string) {
	if strings.TrimSpace(title) == "" {
		return Unavailable
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Registry title normalization failed", "title", title, "panic", fmt.Sprint(r))
			clean = RegistryCleanupError
		}
	}()

	stripped := nonAlnum.ReplaceAllString(Transliterate(strings.ToLower(title)), "")
	if joined := joinFirst(strings.Fields(stripped), maxTitleTokens); joined != "" {
		return joined
	}
	return Unavailable
}

// PrimaryAuthor returns the part of an author cell before the first comma,
// so "Cervantes, Miguel de" searches as "Cervantes".
func PrimaryAuthor(raw string) string {
	before, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(before)
}

// IsUsable reports whether a normalized term can be sent to a source.
func IsUsable(term string) bool {
	switch term {
	case "", Unavailable, CleanupError, RegistryCleanupError:
		return false
	}
	return true
}

func joinFirst(words []string, n int) string {
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
