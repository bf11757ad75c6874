package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	MinYear = 1700
	MaxYear = 2100
)

var (
	bracketedYear = regexp.MustCompile(`[\[\(](\d{4})[\]\)]`)
	bareYear      = regexp.MustCompile(`\b(1[7-9]\d{2}|20\d{2}|2100)\b`)
	exactYear     = regexp.MustCompile(`^\d{4}$`)
)

// Layouts seen in catalog publish_date values, most common first.
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 02, 2006",
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"02/01/2006",
	"1/2/2006",
}

// CleanYear extracts a publication year from a free-form cell such as
// "[1987]", "(1987) 2nd ed." or "1987, reprint". A bracketed or parenthesized
// year wins over a bare one.
func CleanYear(raw string) (int, bool) {
	if m := bracketedYear.FindStringSubmatch(raw); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil && inRange(y) {
			return y, true
		}
	}
	if m := bareYear.FindStringSubmatch(raw); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y, true
		}
	}
	return 0, false
}

// YearFromDate extracts a year from a catalog date string. An exact
// four-digit value is taken as is, then known date layouts are tried, then
// any embedded plausible year. Parsed dates may fall outside [MinYear,
// MaxYear]; callers filter.
func YearFromDate(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if exactYear.MatchString(s) {
		if y, err := strconv.Atoi(s); err == nil && inRange(y) {
			return y, true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}

	if m := bareYear.FindStringSubmatch(s); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y, true
		}
	}
	return 0, false
}

func inRange(y int) bool {
	return y >= MinYear && y <= MaxYear
}
