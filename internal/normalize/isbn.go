package normalize

import (
	"regexp"
	"strings"
)

var (
	isbnSeparators = regexp.MustCompile(`[;\s,]+`)
	isbnPrefix     = regexp.MustCompile(`(?i)^isbn\s*:\s*`)
)

// SelectPriorityISBN picks one ISBN out of a cell that may hold several.
// Ranking: 13 digits starting with 9, then 13 digits with a 978/979
// prefix, then 10 digits. The first token wins within a rank; "" when
// nothing qualifies.
func SelectPriorityISBN(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var startsWith9, prefixed, isbn10 []string
	for _, token := range isbnSeparators.Split(raw, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		digits := CleanISBN(isbnPrefix.ReplaceAllString(token, ""))
		if !isDigits(digits) {
			continue
		}
		switch len(digits) {
		case 13:
			if strings.HasPrefix(digits, "9") {
				startsWith9 = append(startsWith9, digits)
			}
			if strings.HasPrefix(digits, "978") || strings.HasPrefix(digits, "979") {
				prefixed = append(prefixed, digits)
			}
		case 10:
			isbn10 = append(isbn10, digits)
		}
	}

	for _, rank := range [][]string{startsWith9, prefixed, isbn10} {
		if len(rank) > 0 {
			return rank[0]
		}
	}
	return ""
}

// CleanISBN removes hyphens and spaces.
func CleanISBN(s string) string {
	return strings.TrimSpace(strings.NewReplacer("-", "", " ", "").Replace(s))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
