package edition

import (
	"strings"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/match"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
)

// SelectBest picks the most recent candidate written by one of the filter
// authors. Candidates without a usable year (or older than
// normalize.MinYear) are skipped. On equal years the earlier candidate
// wins. An empty filter accepts every author.
func SelectBest(candidates []Candidate, filter []string) Lookup {
	var (
		best     *Candidate
		bestYear = -1
	)

	for i := range candidates {
		c := &candidates[i]
		if len(filter) > 0 && !match.AuthorOK(filter, c.Authors) {
			continue
		}
		year, ok := c.ResolvedYear()
		if !ok || year < normalize.MinYear {
			continue
		}
		if year > bestYear {
			best, bestYear = c, year
		}
	}

	if best == nil {
		return Lookup{Status: StatusNoCriterion}
	}

	return Lookup{
		Status: StatusOK,
		Found: &Edition{
			Title:  best.Title,
			Author: displayAuthor(best.Authors, filter),
			ISBN:   best.PreferredISBN(),
			Year:   bestYear,
			Source: best.Source,
		},
	}
}

// ResolvedYear returns the candidate's year, parsing PublishDate when the
// source did not supply one directly.
func (c Candidate) ResolvedYear() (int, bool) {
	if c.Year > 0 {
		return c.Year, true
	}
	return normalize.YearFromDate(c.PublishDate)
}

// PreferredISBN returns the first ISBN-13, else the first ISBN-10, else the
// first 13-character identifier, else the first identifier, without hyphens.
func (c Candidate) PreferredISBN() string {
	if len(c.ISBN13) > 0 {
		return stripHyphens(c.ISBN13[0])
	}
	if len(c.ISBN10) > 0 {
		return stripHyphens(c.ISBN10[0])
	}
	for _, id := range c.Identifiers {
		if len(stripHyphens(id)) == 13 {
			return stripHyphens(id)
		}
	}
	if len(c.Identifiers) > 0 {
		return stripHyphens(c.Identifiers[0])
	}
	return ""
}

func displayAuthor(authors, filter []string) string {
	if joined := joinNonEmpty(authors); joined != "" {
		return joined
	}
	if joined := joinNonEmpty(filter); joined != "" {
		return joined
	}
	return UnknownAuthor
}

func joinNonEmpty(values []string) string {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}

func stripHyphens(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "-", "")
}
