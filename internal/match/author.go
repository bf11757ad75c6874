// Package match decides whether a catalog edition was written by the author
// the user asked for.
package match

import (
	"slices"
	"strings"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
)

// AuthorOK reports whether any target author matches any candidate author.
//
// Both sides are transliterated, lower-cased and trimmed. A target matches a
// candidate when the strings are equal, when every target token occurs as a
// substring of the candidate, or when the target's last token (usually the
// surname) is a whole word of the candidate and either the target has a
// single token or one of its other tokens occurs in the candidate, whole or
// as an initial ("J." or "J" for "Jane").
//
// An empty target list, or one made only of placeholders, accepts anything.
// A usable target against an empty candidate list is rejected.
func AuthorOK(targets, candidates []string) bool {
	var wanted []string
	for _, t := range targets {
		if t = fold(t); t != "" && t != fold(normalize.Unavailable) {
			wanted = append(wanted, t)
		}
	}
	if len(wanted) == 0 {
		return true
	}

	var have []string
	for _, c := range candidates {
		if c = fold(c); c != "" {
			have = append(have, c)
		}
	}
	if len(have) == 0 {
		return false
	}

	for _, target := range wanted {
		parts := strings.Fields(target)
		if len(parts) == 0 {
			continue
		}
		for _, candidate := range have {
			if matches(target, parts, candidate) {
				return true
			}
		}
	}
	return false
}

func matches(target string, parts []string, candidate string) bool {
	if target == candidate {
		return true
	}

	allContained := true
	for _, p := range parts {
		if !strings.Contains(candidate, p) {
			allContained = false
			break
		}
	}
	if allContained {
		return true
	}

	surname := parts[len(parts)-1]
	if !slices.Contains(strings.Fields(candidate), surname) {
		return false
	}
	if len(parts) == 1 {
		return true
	}
	words := strings.Fields(candidate)
	for _, p := range parts[:len(parts)-1] {
		if strings.Contains(candidate, p) {
			return true
		}
		if slices.ContainsFunc(words, func(w string) bool { return isInitialOf(w, p) }) {
			return true
		}
	}
	return false
}

// isInitialOf reports whether word is a one-letter abbreviation of name.
func isInitialOf(word, name string) bool {
	initial := strings.TrimSuffix(word, ".")
	return len(initial) == 1 && strings.HasPrefix(name, initial)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(normalize.Transliterate(s)))
}
