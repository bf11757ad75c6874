package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	url     string
	html    string
	present map[string]bool

	navigated []string
	clicks    []string
	typed     []string
	waits     [][]string

	navigateErr error
	panicOnHTML bool
}

func newFakeSession(html string, present ...string) *fakeSession {
	s := &fakeSession{url: "about:blank", html: html, present: map[string]bool{}}
	for _, p := range present {
		s.present[p] = true
	}
	return s
}

func (s *fakeSession) CurrentURL(context.Context) (string, error) { return s.url, nil }

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	if s.navigateErr != nil {
		return s.navigateErr
	}
	s.navigated = append(s.navigated, url)
	s.url = url
	return nil
}

func (s *fakeSession) WaitAny(_ context.Context, selectors []string, _ time.Duration) (string, error) {
	s.waits = append(s.waits, selectors)
	for _, sel := range selectors {
		if s.present[sel] {
			return sel, nil
		}
	}
	return "", ErrWaitTimeout
}

func (s *fakeSession) Click(_ context.Context, selector string) error {
	s.clicks = append(s.clicks, selector)
	return nil
}

func (s *fakeSession) SetText(_ context.Context, _ string, text string) error {
	s.typed = append(s.typed, text)
	return nil
}

func (s *fakeSession) HTML(context.Context) (string, error) {
	if s.panicOnHTML {
		panic("page crashed")
	}
	return s.html, nil
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func formReady() []string {
	return []string{searchBoxXPath, submitXPath, resultsXPath}
}

func TestParseResults(t *testing.T) {
	entries, err := ParseResults(fixture(t, "results.html"))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, Entry{
		Title:  "Don Quijote de la Mancha",
		Author: "Cervantes Saavedra, Miguel de",
		ISBN:   "978-84-376-0494-7",
		Year:   2005,
	}, entries[0])

	assert.Equal(t, "84-206-3311-2", entries[1].ISBN)
	assert.Equal(t, "Cervantes Saavedra, Miguel de", entries[1].Author)
	assert.Equal(t, 2016, entries[1].Year)

	assert.Equal(t, normalize.Unavailable, entries[2].Author)
	assert.Equal(t, normalize.Unavailable, entries[2].ISBN)
	assert.Zero(t, entries[2].Year)

	assert.Equal(t, "Cervantes, Miguel de; Doré, Gustave", entries[3].Author)
	assert.Equal(t, 2016, entries[3].Year)
}

func TestDescriptionYearPatternOrder(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"parenthesized first", "reimpresión 2001 (1998)", 1998},
		{"numeric edition date falls to bare year", "F. Edición: 05/1999 reimp. 2003", 1999},
		{"edition date before bare year", "Madrid 2001, F. Edición: enero 1999", 1999},
		{"publication date", "F. Publicación: 2010", 2010},
		{"bare year", "Madrid, 1955", 1955},
		{"out of range parenthesized falls through", "(1650) Madrid 1985", 1985},
		{"nothing", "sin fecha", 0},
		{"seventeenth century ignored", "Madrid 1750", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, descriptionYear(tt.text))
		})
	}
}

func TestSearchPicksLatestEntry(t *testing.T) {
	s := newFakeSession(fixture(t, "results.html"), append(formReady(), cookieXPaths[0])...)
	h := NewHandle(s)

	got := NewClient().Search(context.Background(), h, "don quijote", "Cervantes")

	require.True(t, got.OK())
	assert.Equal(t, &edition.Edition{
		Title:  "Don Quijote (edición escolar)",
		Author: "Cervantes Saavedra, Miguel de",
		ISBN:   "8420633112",
		Year:   2016,
		Source: edition.SourceRegistry,
	}, got.Found)

	assert.Equal(t, []string{DefaultSearchURL}, s.navigated)
	assert.Equal(t, []string{cookieXPaths[0], submitXPath}, s.clicks)
	assert.Equal(t, []string{"don quijote Cervantes"}, s.typed)
	assert.True(t, h.CookiesHandled())
}

func TestSearchReusesPageAndCookieState(t *testing.T) {
	s := newFakeSession(fixture(t, "results.html"), formReady()...)
	h := NewHandle(s)
	client := NewClient()

	first := client.Search(context.Background(), h, "quijote", "")
	require.True(t, first.OK())
	assert.True(t, h.CookiesHandled(), "no banner still counts as handled")

	s.url = "https://www.cultura.gob.es/webISBN/tituloSimpleFilter.do?layout=resultados"
	second := client.Search(context.Background(), h, "quijote", "")
	require.True(t, second.OK())

	assert.Len(t, s.navigated, 1)
	assert.Equal(t, []string{submitXPath, submitXPath}, s.clicks)
	assert.Equal(t, []string{"quijote", "quijote"}, s.typed)
}

func TestSearchStatuses(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		present []string
		title   string
		want    edition.Status
	}{
		{"no entries", fixture(t, "no_results.html"), []string{searchBoxXPath, submitXPath, noResultsXPath}, "niebla", edition.StatusNotFound},
		{"no year", fixture(t, "no_year.html"), formReady(), "niebla", edition.StatusNoYear},
		{"results never show", "", []string{searchBoxXPath, submitXPath}, "niebla", edition.StatusTimeout},
		{"empty query", "", formReady(), "  ", edition.StatusEmptyQuery},
		{"search box missing", "", nil, "niebla", edition.StatusUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSession(tt.html, tt.present...)
			got := NewClient().Search(context.Background(), NewHandle(s), tt.title, "")
			assert.Equal(t, tt.want, got.Status)
			assert.Nil(t, got.Found)
		})
	}
}

func TestSearchEmptyQueryTypesNothing(t *testing.T) {
	s := newFakeSession("", formReady()...)
	_ = NewClient().Search(context.Background(), NewHandle(s), "", "")
	assert.Empty(t, s.typed)
	assert.Empty(t, s.clicks)
}

func TestSearchWithoutBrowser(t *testing.T) {
	client := NewClient()
	assert.Equal(t, edition.StatusNoBrowser, client.Search(context.Background(), nil, "x", "").Status)
	assert.Equal(t, edition.StatusNoBrowser, client.Search(context.Background(), NewHandle(nil), "x", "").Status)
}

func TestSearchFaultsBecomeUnexpectedError(t *testing.T) {
	s := newFakeSession("", formReady()...)
	s.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	got := NewClient().Search(context.Background(), NewHandle(s), "niebla", "")
	assert.Equal(t, edition.StatusUnexpected, got.Status)
	assert.ErrorContains(t, got.Err, "ERR_NAME_NOT_RESOLVED")

	s = newFakeSession("", formReady()...)
	s.panicOnHTML = true
	got = NewClient().Search(context.Background(), NewHandle(s), "niebla", "")
	assert.Equal(t, edition.StatusUnexpected, got.Status)
	assert.ErrorContains(t, got.Err, "page crashed")
}

func TestSearchURLOption(t *testing.T) {
	s := newFakeSession(fixture(t, "no_results.html"), searchBoxXPath, submitXPath, noResultsXPath)
	s.url = "http://registry.test/buscar?x=1"

	client := NewClient(WithSearchURL("http://registry.test/buscar?layout=es"), WithResultsTimeout(time.Millisecond))
	got := client.Search(context.Background(), NewHandle(s), "niebla", "")

	assert.Equal(t, edition.StatusNotFound, got.Status)
	assert.Empty(t, s.navigated)
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "niebla unamuno", buildQuery("niebla", "unamuno"))
	assert.Equal(t, "niebla", buildQuery(" niebla ", ""))
	assert.Equal(t, "unamuno", buildQuery("", "unamuno"))
	assert.Equal(t, "", buildQuery(" ", " "))
}
