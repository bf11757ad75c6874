package catalog

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
)

// WorksFromISBN returns the work keys (e.g. "/works/OL45804W") the ISBN
// belongs to.
func (c *Client) WorksFromISBN(ctx context.Context, isbn string) ([]string, error) {
	var rec isbnRecord
	if err := c.getJSON(ctx, "/isbn/"+url.PathEscape(isbn)+".json", nil, &rec); err != nil {
		return nil, fmt.Errorf("works for isbn %s: %w", isbn, err)
	}

	keys := make([]string, 0, len(rec.Works))
	for _, w := range rec.Works {
		if validKey(w.Key) {
			keys = append(keys, w.Key)
		}
	}
	return keys, nil
}

// AuthorsOfWork resolves the author names of a work. An author whose record
// cannot be fetched is skipped; the first such error is returned alongside
// the names that did resolve.
func (c *Client) AuthorsOfWork(ctx context.Context, workKey string) ([]string, error) {
	if !validKey(workKey) {
		return nil, fmt.Errorf("invalid work key %q", workKey)
	}

	var work workRecord
	if err := c.getJSON(ctx, workKey+".json", nil, &work); err != nil {
		return nil, fmt.Errorf("work %s: %w", workKey, err)
	}

	var (
		names    []string
		firstErr error
	)
	for _, a := range work.Authors {
		key := a.key()
		if !validKey(key) {
			continue
		}
		var author authorRecord
		if err := c.getJSON(ctx, key+".json", nil, &author); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("author %s: %w", key, err)
			}
			continue
		}
		if name := strings.TrimSpace(author.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, firstErr
}

// EditionsOfWork pages through a work's editions, up to 150 of them. Each
// edition carries its own author_name list, or workAuthors when it has none.
// Editions gathered before a failing page are still returned.
func (c *Client) EditionsOfWork(ctx context.Context, workKey string, workAuthors []string) ([]edition.Candidate, error) {
	if !validKey(workKey) {
		return nil, fmt.Errorf("invalid work key %q", workKey)
	}

	var out []edition.Candidate
	for offset := 0; len(out) < maxEditions; {
		query := url.Values{
			"limit":  {strconv.Itoa(editionsPageSize)},
			"offset": {strconv.Itoa(offset)},
			"fields": {editionsFields},
		}
		var page editionsPage
		if err := c.getJSON(ctx, workKey+"/editions.json", query, &page); err != nil {
			return out, fmt.Errorf("editions of %s at offset %d: %w", workKey, offset, err)
		}
		if len(page.Entries) == 0 {
			break
		}

		for _, e := range page.Entries {
			out = append(out, editionCandidate(e, workAuthors))
		}

		offset += len(page.Entries)
		if len(page.Entries) < editionsPageSize {
			break
		}
	}

	if len(out) > maxEditions {
		out = out[:maxEditions]
	}
	return out, nil
}

// SearchEditions runs a free-text title (and optional author) search.
// Quotes are removed from both terms before building the query.
func (c *Client) SearchEditions(ctx context.Context, title, author string) ([]edition.Candidate, error) {
	if !normalize.IsUsable(title) {
		return nil, nil
	}

	parts := []string{fmt.Sprintf(`title:"%s"`, strings.ReplaceAll(title, `"`, ""))}
	if normalize.IsUsable(author) {
		parts = append(parts, fmt.Sprintf(`author:"%s"`, strings.ReplaceAll(author, `"`, "")))
	}
	query := url.Values{
		"q":      {strings.Join(parts, " AND ")},
		"fields": {searchFields},
		"limit":  {strconv.Itoa(searchResultLimit)},
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "/search.json", query, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", title, err)
	}

	out := make([]edition.Candidate, 0, len(resp.Docs))
	for _, d := range resp.Docs {
		out = append(out, searchCandidate(d))
	}
	return out, nil
}

func editionCandidate(e editionEntry, workAuthors []string) edition.Candidate {
	authors := e.AuthorName
	if len(authors) == 0 {
		authors = slices.Clone(workAuthors)
	}

	date := e.PublishDate.first()
	if date == "" && len(e.PublishYear) > 0 {
		date = strconv.Itoa(e.PublishYear[0])
	}

	return edition.Candidate{
		Key:         e.Key,
		Title:       e.Title,
		Authors:     authors,
		ISBN13:      e.ISBN13,
		ISBN10:      e.ISBN10,
		PublishDate: date,
		Source:      edition.SourceCatalog,
	}
}

// searchCandidate derives one year for a search hit: the latest numeric
// publish_year, else the latest parseable publish_date, else
// first_publish_year.
func searchCandidate(d searchDoc) edition.Candidate {
	year := 0
	if len(d.PublishYear) > 0 {
		year = slices.Max(d.PublishYear)
	}
	if year == 0 {
		for _, ds := range d.PublishDate {
			if y, ok := normalize.YearFromDate(ds); ok && y > year {
				year = y
			}
		}
	}
	if year == 0 && len(d.FirstPublishYear) > 0 {
		year = d.FirstPublishYear[0]
	}

	c := edition.Candidate{
		Key:         d.Key,
		Title:       d.Title,
		Authors:     d.AuthorName,
		Identifiers: d.ISBN,
		Source:      edition.SourceCatalog,
	}
	if year > 0 {
		c.PublishDate = strconv.Itoa(year)
	}
	return c
}

func validKey(key string) bool {
	return strings.HasPrefix(key, "/") && !strings.Contains(key, "..") && !strings.ContainsAny(key, "?#")
}
