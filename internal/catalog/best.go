package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/ratelimit"
)

// BestEdition looks the book up by ISBN (first work only) and by
// title/author, then selects the most recent edition by a matching author.
// The author filter is the given author when usable, else the work's own
// authors. Failed calls only shrink the candidate pool; their errors end up
// in Lookup.Err. The configured pause is taken before returning, on every
// path.
func (c *Client) BestEdition(ctx context.Context, isbn, title, author string) edition.Lookup {
	defer func() {
		if err := ratelimit.Pause(ctx, c.pause); err != nil {
			slog.Debug("OpenLibrary pause interrupted", "error", err)
		}
	}()

	slog.Debug("OpenLibrary lookup", "isbn", isbn, "title", title, "author", author)

	var (
		candidates  []edition.Candidate
		workAuthors []string
		errs        []error
	)

	if isbn != "" && isbn != normalize.Unavailable {
		works, err := c.WorksFromISBN(ctx, isbn)
		if err != nil {
			errs = append(errs, err)
		}
		if len(works) > 0 {
			authors, err := c.AuthorsOfWork(ctx, works[0])
			if err != nil {
				errs = append(errs, err)
			}
			workAuthors = authors

			eds, err := c.EditionsOfWork(ctx, works[0], authors)
			if err != nil {
				errs = append(errs, err)
			}
			candidates = append(candidates, eds...)
		}
	}

	if normalize.IsUsable(title) {
		authorHint := ""
		if normalize.IsUsable(author) {
			authorHint = author
		}
		found, err := c.SearchEditions(ctx, title, authorHint)
		if err != nil {
			errs = append(errs, err)
		}
		candidates = append(candidates, found...)
	}

	for _, err := range errs {
		slog.Warn("OpenLibrary request failed", "isbn", isbn, "title", title, "error", err)
	}

	if len(candidates) == 0 {
		return edition.Lookup{Status: edition.StatusNotFound, Err: errors.Join(errs...)}
	}

	filter := workAuthors
	if normalize.IsUsable(author) {
		filter = []string{author}
	}

	result := edition.SelectBest(candidates, filter)
	result.Err = errors.Join(errs...)
	return result
}
