package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	lookup edition.Lookup
	calls  int
	title  string
	author string
	handle *registry.Handle
}

func (f *fakeRegistry) Search(_ context.Context, h *registry.Handle, title, author string) edition.Lookup {
	f.calls++
	f.title, f.author, f.handle = title, author, h
	return f.lookup
}

type fakeCatalog struct {
	lookup edition.Lookup
	calls  int
	isbn   string
	title  string
	author string
	panics bool
}

func (f *fakeCatalog) BestEdition(_ context.Context, isbn, title, author string) edition.Lookup {
	f.calls++
	f.isbn, f.title, f.author = isbn, title, author
	if f.panics {
		panic("index out of range")
	}
	return f.lookup
}

func found(title string, year int, source edition.Source) edition.Lookup {
	return edition.Lookup{
		Status: edition.StatusOK,
		Found:  &edition.Edition{Title: title, Author: "Gabriel García Márquez", ISBN: "9788497592208", Year: year, Source: source},
	}
}

func soledad(lang string) Record {
	return NewRecord(1, map[string]string{
		ColumnTitle:    "Cien años de soledad",
		ColumnAuthor:   "García Márquez, Gabriel",
		ColumnYear:     "1967",
		ColumnISBN:     "84-376-0494-X; 978-84-376-0494-7",
		ColumnLanguage: lang,
	})
}

func TestNewRecord(t *testing.T) {
	rec := soledad(" ES ")
	assert.Equal(t, 1, rec.Index)
	assert.Equal(t, 1967, rec.Year)
	assert.Equal(t, "9788437604947", rec.ISBN)
	assert.Equal(t, LanguageES, rec.Language)

	rec = NewRecord(2, map[string]string{ColumnTitle: "Niebla"})
	assert.Zero(t, rec.Year)
	assert.Empty(t, rec.ISBN)
	assert.Equal(t, LanguageOther, rec.Language)
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LanguageES, ParseLanguage("es"))
	assert.Equal(t, LanguageNonES, ParseLanguage("No-Es"))
	assert.Equal(t, LanguageOther, ParseLanguage("en"))
	assert.Equal(t, LanguageOther, ParseLanguage(""))
}

func TestResolveRegistrySuccess(t *testing.T) {
	reg := &fakeRegistry{lookup: found("Cien años de soledad", 2007, edition.SourceRegistry)}
	cat := &fakeCatalog{}
	h := registry.NewHandle(nil)

	out := NewEngine(reg, cat).Resolve(context.Background(), soledad("es"), h)

	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, MessageNewer, out.Message)
	assert.Empty(t, out.Warnings)
	assert.True(t, out.Newer)
	assert.Equal(t, "cien anos de soledad", out.SearchTitle)
	assert.Equal(t, "Garcia Marquez", out.SearchAuthor)
	assert.Equal(t, "cien anos de soledad", reg.title)
	assert.Equal(t, "Garcia Marquez", reg.author)
	assert.Same(t, h, reg.handle)
	assert.Zero(t, cat.calls)
}

func TestResolveFallsBackWhenRegistryTimesOut(t *testing.T) {
	reg := &fakeRegistry{lookup: edition.Lookup{Status: edition.StatusTimeout}}
	cat := &fakeCatalog{lookup: found("Cien años de soledad", 2007, edition.SourceCatalog)}

	out := NewEngine(reg, cat).Resolve(context.Background(), soledad("es"), nil)

	assert.Equal(t, StatusOKFallback, out.Status)
	assert.True(t, strings.HasPrefix(out.Message, "success"))
	assert.Equal(t, MessageNewer, out.Message)
	assert.NotContains(t, out.Message, FlagTitleDiffers)
	assert.Equal(t, "Cien anos soledad", out.SearchTitle)
	assert.Equal(t, "Cien anos soledad", cat.title)
	assert.Equal(t, "Garcia Marquez", cat.author)
	assert.Equal(t, "9788437604947", cat.isbn)
	assert.Equal(t, 1, reg.calls)
}

func TestResolveBothSourcesFail(t *testing.T) {
	reg := &fakeRegistry{lookup: edition.Lookup{Status: edition.StatusNoBrowser}}
	catErr := errors.New("connection refused")
	cat := &fakeCatalog{lookup: edition.Lookup{Status: edition.StatusNotFound, Err: catErr}}

	out := NewEngine(reg, cat).Resolve(context.Background(), soledad("es"), nil)

	assert.Equal(t, StatusNotFound, out.Status)
	assert.Equal(t, "failure — not found", out.Message)
	assert.Equal(t, edition.StatusNotFound, out.SourceStatus)
	assert.ErrorIs(t, out.Err, catErr)
	assert.Nil(t, out.Found)
}

func TestResolveCatalogOnlyForOtherLanguages(t *testing.T) {
	reg := &fakeRegistry{}
	cat := &fakeCatalog{lookup: edition.Lookup{Status: edition.StatusNoCriterion}}

	out := NewEngine(reg, cat).Resolve(context.Background(), soledad("no-es"), nil)

	assert.Equal(t, StatusNotFound, out.Status)
	assert.Equal(t, "failure — not found (no criterion match)", out.Message)
	assert.Zero(t, reg.calls)
	assert.Equal(t, 1, cat.calls)
}

func TestResolveInputFailures(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"missing year", map[string]string{ColumnTitle: "Niebla", ColumnLanguage: "es"}, "input failure — missing year"},
		{"missing year wins over empty title", map[string]string{ColumnLanguage: "es"}, "input failure — missing year"},
		{"out of range year", map[string]string{ColumnTitle: "Niebla", ColumnYear: "circa 2200", ColumnLanguage: "es"}, "input failure — missing year"},
		{"empty title", map[string]string{ColumnTitle: "   ", ColumnYear: "1914", ColumnLanguage: "es"}, "input failure — empty title"},
		{"empty title wins over language", map[string]string{ColumnYear: "1914", ColumnLanguage: "fr"}, "input failure — empty title"},
		{"invalid language", map[string]string{ColumnTitle: "Niebla", ColumnYear: "1914", ColumnLanguage: "fr"}, "input failure — invalid language"},
		{"invalid registry title", map[string]string{ColumnTitle: "¿¡!?", ColumnYear: "1914", ColumnLanguage: "es"}, "input failure — invalid title"},
		{"invalid catalog title", map[string]string{ColumnTitle: "de la y", ColumnYear: "1914", ColumnLanguage: "no-es"}, "input failure — invalid title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, cat := &fakeRegistry{}, &fakeCatalog{}
			out := NewEngine(reg, cat).Resolve(context.Background(), NewRecord(3, tt.fields), nil)

			assert.Equal(t, StatusInputError, out.Status)
			assert.Equal(t, tt.want, out.Message)
			assert.Zero(t, reg.calls, "registry must not be queried")
			assert.Zero(t, cat.calls, "catalog must not be queried")
		})
	}
}

func TestResolveWarnings(t *testing.T) {
	rec := NewRecord(4, map[string]string{
		ColumnTitle:    "Niebla",
		ColumnYear:     "1914",
		ColumnLanguage: "no-es",
	})
	cat := &fakeCatalog{lookup: found("Niebla (nivola)", 1914, edition.SourceCatalog)}

	out := NewEngine(&fakeRegistry{}, cat).Resolve(context.Background(), rec, nil)

	assert.Equal(t, StatusOK, out.Status)
	assert.False(t, out.Newer)
	assert.Equal(t, []string{FlagTitleDiffers, FlagNoAuthor}, out.Warnings)
	assert.Equal(t, "success — no newer version — title differs, no author", out.Message)
	assert.Empty(t, cat.author)
}

func TestResolveTitleComparisonIgnoresCase(t *testing.T) {
	cat := &fakeCatalog{lookup: found("CIEN AÑOS DE SOLEDAD", 1967, edition.SourceCatalog)}
	out := NewEngine(&fakeRegistry{}, cat).Resolve(context.Background(), soledad("no-es"), nil)

	assert.Equal(t, MessageNotNewer, out.Message)
	assert.Empty(t, out.Warnings)
}

func TestResolveAllowMissingYear(t *testing.T) {
	rec := NewRecord(5, map[string]string{
		ColumnTitle:    "Cien años de soledad",
		ColumnAuthor:   "García Márquez",
		ColumnLanguage: "no-es",
	})
	cat := &fakeCatalog{lookup: found("Cien años de soledad", 2007, edition.SourceCatalog)}

	out := NewEngine(&fakeRegistry{}, cat, WithAllowMissingYear(true)).Resolve(context.Background(), rec, nil)

	assert.Equal(t, StatusOK, out.Status)
	assert.False(t, out.Newer)
	assert.Equal(t, "success — no newer version — no comparison year", out.Message)
}

func TestResolveRecoversFromPanics(t *testing.T) {
	cat := &fakeCatalog{panics: true}

	out := NewEngine(&fakeRegistry{}, cat).Resolve(context.Background(), soledad("no-es"), nil)

	assert.Equal(t, StatusError, out.Status)
	assert.Equal(t, "failure — unexpected error", out.Message)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "catalog")
}

func TestResolveIsIdempotent(t *testing.T) {
	reg := &fakeRegistry{lookup: edition.Lookup{Status: edition.StatusNoYear}}
	cat := &fakeCatalog{lookup: found("Cien años", 2015, edition.SourceCatalog)}
	engine := NewEngine(reg, cat)

	first := engine.Resolve(context.Background(), soledad("es"), nil)
	second := engine.Resolve(context.Background(), soledad("es"), nil)
	assert.Equal(t, first, second)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusOK, statusFor(edition.StatusOK))
	assert.Equal(t, StatusNotFound, statusFor(edition.StatusNotFound))
	assert.Equal(t, StatusNotFound, statusFor(edition.StatusNoYear))
	assert.Equal(t, StatusNotFound, statusFor(edition.StatusNoCriterion))
	assert.Equal(t, StatusTimeout, statusFor(edition.StatusTimeout))
	assert.Equal(t, StatusError, statusFor(edition.StatusEmptyQuery))
	assert.Equal(t, StatusError, statusFor(edition.StatusUnexpected))
	assert.Equal(t, StatusError, statusFor(edition.StatusNoBrowser))
}
