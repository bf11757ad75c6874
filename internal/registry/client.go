package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
)

const (
	DefaultSearchURL      = "https://www.cultura.gob.es/webISBN/tituloSimpleFilter.do?cache=init&prev_layout=busquedaisbn&layout=busquedaisbn&language=es"
	defaultPageTimeout    = 20 * time.Second
	defaultResultsTimeout = 12 * time.Second
	defaultCookieTimeout  = 3 * time.Second
)

// XPath selectors of the registry search page.
const (
	searchBoxXPath = "//input[@id='params.liConceptosExt[0].texto']"
	submitXPath    = "//input[@type='submit' and @value='Buscar']"
	resultsXPath   = "//div[@class='isbnResultado']"
	noResultsXPath = "//div[@id='aviso']"
)

var cookieXPaths = []string{
	"//button[contains(translate(normalize-space(.), 'ACEPTAR', 'aceptar'), 'aceptar')]",
	"//button[contains(translate(text(), 'ACEPTAR', 'aceptar'), 'Aceptar')]",
	"//a[contains(translate(normalize-space(.), 'ACEPTAR', 'aceptar'), 'aceptar')]",
}

// Client drives the registry's simple title search.
type Client struct {
	searchURL      string
	pageTimeout    time.Duration
	resultsTimeout time.Duration
	cookieTimeout  time.Duration
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// NewClient creates a registry client with the production URL and waits.
func NewClient(opts ...Option) *Client {
	c := &Client{
		searchURL:      DefaultSearchURL,
		pageTimeout:    defaultPageTimeout,
		resultsTimeout: defaultResultsTimeout,
		cookieTimeout:  defaultCookieTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSearchURL sets the search page URL, query string included.
func WithSearchURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.searchURL = u
		}
	}
}

// WithPageTimeout bounds waiting for the search form and its button.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pageTimeout = d
		}
	}
}

// WithResultsTimeout bounds waiting for results after submitting.
func WithResultsTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.resultsTimeout = d
		}
	}
}

// WithCookieTimeout bounds probing each cookie banner button.
func WithCookieTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.cookieTimeout = d
		}
	}
}

// Search queries the registry for title and author and returns the most
// recent result that shows a year. The session in h is reused as is and
// never closed.
func (c *Client) Search(ctx context.Context, h *Handle, title, author string) (result edition.Lookup) {
	if !h.usable() {
		slog.Debug("Registry search skipped, no browser session")
		return edition.Lookup{Status: edition.StatusNoBrowser}
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("registry search panicked: %v", r)
			slog.Error("Registry search failed", "title", title, "error", err)
			result = edition.Lookup{Status: edition.StatusUnexpected, Err: err}
		}
	}()

	slog.Debug("Registry search", "title", title, "author", author)

	result, err := c.search(ctx, h, title, author)
	if err != nil {
		slog.Warn("Registry search failed", "title", title, "author", author, "error", err)
		return edition.Lookup{Status: edition.StatusUnexpected, Err: err}
	}
	return result
}

func (c *Client) search(ctx context.Context, h *Handle, title, author string) (edition.Lookup, error) {
	s := h.Session

	current, err := s.CurrentURL(ctx)
	if err != nil {
		return edition.Lookup{}, fmt.Errorf("reading current url: %w", err)
	}
	if base := c.baseURL(); !strings.Contains(current, base) {
		if err := s.Navigate(ctx, c.searchURL); err != nil {
			return edition.Lookup{}, fmt.Errorf("opening search page: %w", err)
		}
	}

	if !h.cookiesHandled {
		c.dismissCookies(ctx, s)
		h.cookiesHandled = true
	}

	if _, err := s.WaitAny(ctx, []string{searchBoxXPath}, c.pageTimeout); err != nil {
		return edition.Lookup{}, fmt.Errorf("waiting for search box: %w", err)
	}

	query := buildQuery(title, author)
	if query == "" {
		return edition.Lookup{Status: edition.StatusEmptyQuery}, nil
	}
	if err := s.SetText(ctx, searchBoxXPath, query); err != nil {
		return edition.Lookup{}, fmt.Errorf("typing query: %w", err)
	}

	if _, err := s.WaitAny(ctx, []string{submitXPath}, c.pageTimeout); err != nil {
		return edition.Lookup{}, fmt.Errorf("waiting for submit button: %w", err)
	}
	if err := s.Click(ctx, submitXPath); err != nil {
		return edition.Lookup{}, fmt.Errorf("submitting search: %w", err)
	}

	if _, err := s.WaitAny(ctx, []string{resultsXPath, noResultsXPath}, c.resultsTimeout); err != nil {
		if errors.Is(err, ErrWaitTimeout) {
			slog.Info("Registry results timed out", "query", query, "timeout", c.resultsTimeout)
			return edition.Lookup{Status: edition.StatusTimeout, Err: err}, nil
		}
		return edition.Lookup{}, fmt.Errorf("waiting for results: %w", err)
	}

	page, err := s.HTML(ctx)
	if err != nil {
		return edition.Lookup{}, fmt.Errorf("reading result page: %w", err)
	}
	entries, err := ParseResults(page)
	if err != nil {
		return edition.Lookup{}, err
	}

	return pickLatest(entries), nil
}

// dismissCookies clicks the first cookie banner button that shows up. No
// banner at all is fine.
func (c *Client) dismissCookies(ctx context.Context, s Session) {
	for _, xp := range cookieXPaths {
		if _, err := s.WaitAny(ctx, []string{xp}, c.cookieTimeout); err != nil {
			continue
		}
		if err := s.Click(ctx, xp); err != nil {
			slog.Debug("Cookie banner click failed", "selector", xp, "error", err)
			continue
		}
		slog.Debug("Cookie banner accepted", "selector", xp)
		return
	}
	slog.Debug("No cookie banner found")
}

func (c *Client) baseURL() string {
	base, _, _ := strings.Cut(c.searchURL, "?")
	return base
}

func buildQuery(title, author string) string {
	var parts []string
	for _, p := range []string{title, author} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// pickLatest keeps the entries that show a year and selects the most
// recent one, the earliest listed winning ties.
func pickLatest(entries []Entry) edition.Lookup {
	if len(entries) == 0 {
		return edition.Lookup{Status: edition.StatusNotFound}
	}

	var candidates []edition.Candidate
	for _, e := range entries {
		if e.Year == 0 {
			continue
		}
		candidates = append(candidates, edition.Candidate{
			Title:       e.Title,
			Authors:     []string{e.Author},
			Identifiers: []string{e.ISBN},
			Year:        e.Year,
			Source:      edition.SourceRegistry,
		})
	}
	if len(candidates) == 0 {
		return edition.Lookup{Status: edition.StatusNoYear}
	}

	return edition.SelectBest(candidates, nil)
}
