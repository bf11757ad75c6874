// Package resolve turns one bibliographic record into an Outcome by querying
// the ISBN registry and the catalog, and streams outcomes for whole batches.
package resolve

import (
	"strings"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
)

// Input column names.
const (
	ColumnTitle    = "Title"
	ColumnAuthor   = "Author"
	ColumnYear     = "year"
	ColumnLanguage = "Idioma"
	ColumnISBN     = "ISBN"
)

// Language selects which source is tried first.
type Language string

const (
	LanguageES    Language = "es"
	LanguageNonES Language = "no-es"
	LanguageOther Language = "other"
)

// ParseLanguage maps an Idioma cell to a Language, case-insensitively.
func ParseLanguage(raw string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case LanguageES:
		return LanguageES
	case LanguageNonES:
		return LanguageNonES
	default:
		return LanguageOther
	}
}

// Record is one input row, cleaned. Year is 0 when the row has none.
type Record struct {
	Index     int
	Title     string
	Author    string
	Year      int
	ISBNField string
	ISBN      string
	Language  Language
	Fields    map[string]string
}

// NewRecord builds a Record from a header-keyed row. Missing keys are
// treated as empty cells.
func NewRecord(index int, fields map[string]string) Record {
	year, _ := normalize.CleanYear(fields[ColumnYear])
	return Record{
		Index:     index,
		Title:     fields[ColumnTitle],
		Author:    fields[ColumnAuthor],
		Year:      year,
		ISBNField: fields[ColumnISBN],
		ISBN:      normalize.SelectPriorityISBN(fields[ColumnISBN]),
		Language:  ParseLanguage(fields[ColumnLanguage]),
		Fields:    fields,
	}
}

// HasLanguage reports whether any record has language lang.
func HasLanguage(records []Record, lang Language) bool {
	for _, r := range records {
		if r.Language == lang {
			return true
		}
	}
	return false
}
