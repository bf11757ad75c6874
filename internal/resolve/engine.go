package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
	apperrors "github.com/Dfera000/Buscador-nuevas-ediciones/internal/errors"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/registry"
)

// Registry searches the Spanish ISBN registry.
type Registry interface {
	Search(ctx context.Context, h *registry.Handle, title, author string) edition.Lookup
}

// Catalog finds the best catalog edition for an ISBN and search terms.
type Catalog interface {
	BestEdition(ctx context.Context, isbn, title, author string) edition.Lookup
}

// Engine resolves records one at a time. It holds no per-batch state; the
// browser handle is passed in by the caller.
type Engine struct {
	registry         Registry
	catalog          Catalog
	allowMissingYear bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAllowMissingYear resolves rows without a year instead of rejecting
// them. Their successes carry the "no comparison year" flag.
func WithAllowMissingYear(allow bool) Option {
	return func(e *Engine) {
		e.allowMissingYear = allow
	}
}

// NewEngine creates an Engine over the two sources.
func NewEngine(reg Registry, cat Catalog, opts ...Option) *Engine {
	e := &Engine{registry: reg, catalog: cat}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// phase names the step a record is in, for logs.
type phase string

const (
	phaseInput    phase = "input"
	phaseRegistry phase = "registry"
	phaseCatalog  phase = "catalog"
	phaseFallback phase = "fallback"
	phaseClassify phase = "classify"
)

// Resolve produces the Outcome for one record. It never panics: a fault
// inside the record becomes an error outcome.
func (e *Engine) Resolve(ctx context.Context, rec Record, h *registry.Handle) Outcome {
	out, _ := e.resolve(ctx, rec, h, nil)
	return out
}

// resolve runs the record through its sources. notify, when set, receives
// each fallback notice before the next source is tried; it runs outside the
// panic guard, and returning false abandons the record with done false.
func (e *Engine) resolve(ctx context.Context, rec Record, h *registry.Handle, notify func(string) bool) (out Outcome, done bool) {
	var attempts []attempt
	out, settled := guard(rec, phaseInput, func() (Outcome, bool) {
		if rec.Year == 0 && !e.allowMissingYear {
			return inputFailure(rec, "missing year", "", ""), true
		}
		if strings.TrimSpace(rec.Title) == "" {
			return inputFailure(rec, "empty title", "", ""), true
		}
		planned, rejected := e.plan(rec, h)
		if rejected != nil {
			return *rejected, true
		}
		attempts = planned
		return Outcome{}, false
	})
	if settled {
		return out, true
	}

	var last attempt
	for i, a := range attempts {
		if out, settled := guard(rec, a.phase, func() (Outcome, bool) {
			a.lookup = a.run(ctx)
			return Outcome{}, false
		}); settled {
			return out, true
		}

		if a.lookup.OK() {
			status := StatusOK
			if i > 0 {
				status = StatusOKFallback
			}
			out, _ := guard(rec, phaseClassify, func() (Outcome, bool) {
				return classify(rec, status, a.title, a.author, a.lookup), true
			})
			return out, true
		}

		last = a
		if i+1 < len(attempts) {
			next := attempts[i+1]
			slog.Info("Primary lookup failed, falling back", "record", rec.Index, "from", a.phase, "to", next.phase, "status", a.lookup.Status, "error", a.lookup.Err)
			if notify != nil && !notify(fmt.Sprintf("record %d: %s %s, falling back to OpenLibrary", rec.Index, a.phase, a.lookup.Status)) {
				return Outcome{}, false
			}
		}
	}

	out, _ = guard(rec, phaseClassify, func() (Outcome, bool) {
		return failure(rec, last.title, last.author, last.lookup), true
	})
	return out, true
}

// guard runs step, turning a panic into an error outcome for rec. settled
// reports whether the record's outcome is final.
func guard(rec Record, p phase, step func() (Outcome, bool)) (out Outcome, settled bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Record processing panicked", "record", rec.Index, "phase", p, "panic", r)
			out = Outcome{
				Index:        rec.Index,
				Status:       StatusError,
				InputYear:    rec.Year,
				PriorityISBN: rec.ISBN,
				SourceStatus: edition.StatusUnexpected,
				Message:      failurePrefix + string(edition.StatusUnexpected),
				Err:          fmt.Errorf("record %d panicked in %s: %v", rec.Index, p, r),
			}
			settled = true
		}
	}()
	return step()
}

// attempt is one source query with the terms it uses.
type attempt struct {
	phase  phase
	title  string
	author string
	run    func(ctx context.Context) edition.Lookup
	lookup edition.Lookup
}

// plan lists the attempts for a record in order: registry then catalog for
// Spanish rows, catalog alone otherwise. A record that cannot be searched
// gets its input failure instead.
func (e *Engine) plan(rec Record, h *registry.Handle) ([]attempt, *Outcome) {
	gTitle, gAuthor := generalTerms(rec)
	catalog := attempt{
		phase:  phaseCatalog,
		title:  gTitle,
		author: gAuthor,
		run: func(ctx context.Context) edition.Lookup {
			return e.catalog.BestEdition(ctx, rec.ISBN, gTitle, gAuthor)
		},
	}

	switch rec.Language {
	case LanguageES:
		title := normalize.NormalizeTitleForRegistry(rec.Title)
		if !normalize.IsUsable(title) {
			out := inputFailure(rec, "invalid title", title, gAuthor)
			return nil, &out
		}
		primary := attempt{
			phase:  phaseRegistry,
			title:  title,
			author: gAuthor,
			run: func(ctx context.Context) edition.Lookup {
				return e.registry.Search(ctx, h, title, gAuthor)
			},
		}
		catalog.phase = phaseFallback
		return []attempt{primary, catalog}, nil

	case LanguageNonES:
		if !normalize.IsUsable(gTitle) {
			out := inputFailure(rec, "invalid title", gTitle, gAuthor)
			return nil, &out
		}
		return []attempt{catalog}, nil

	default:
		out := inputFailure(rec, "invalid language", "", "")
		return nil, &out
	}
}

// generalTerms are the catalog search terms for a record.
func generalTerms(rec Record) (string, string) {
	title, _ := normalize.NormalizeTitleAuthor(rec.Title, "")
	return title, authorTerm(rec.Author)
}

// authorTerm cleans the author cell; "" when nothing usable remains.
func authorTerm(raw string) string {
	_, author := normalize.NormalizeTitleAuthor("", normalize.PrimaryAuthor(raw))
	if !normalize.IsUsable(author) {
		return ""
	}
	return author
}

func inputFailure(rec Record, reason, searchTitle, searchAuthor string) Outcome {
	err := apperrors.NewInputError(reason)
	slog.Info("Record rejected", "record", rec.Index, "reason", reason)
	return Outcome{
		Index:        rec.Index,
		Status:       StatusInputError,
		InputYear:    rec.Year,
		PriorityISBN: rec.ISBN,
		SearchTitle:  searchTitle,
		SearchAuthor: searchAuthor,
		Message:      err.Error(),
		Err:          err,
	}
}

func failure(rec Record, searchTitle, searchAuthor string, lookup edition.Lookup) Outcome {
	return Outcome{
		Index:        rec.Index,
		Status:       statusFor(lookup.Status),
		InputYear:    rec.Year,
		PriorityISBN: rec.ISBN,
		SearchTitle:  searchTitle,
		SearchAuthor: searchAuthor,
		SourceStatus: lookup.Status,
		Message:      failurePrefix + string(lookup.Status),
		Err:          lookup.Err,
	}
}

func classify(rec Record, status Status, searchTitle, searchAuthor string, lookup edition.Lookup) Outcome {
	found := lookup.Found

	var warnings []string
	foundTitle, _ := normalize.NormalizeTitleAuthor(found.Title, "")
	inputTitle, _ := normalize.NormalizeTitleAuthor(rec.Title, "")
	if !strings.EqualFold(foundTitle, inputTitle) {
		warnings = append(warnings, FlagTitleDiffers)
	}
	if searchAuthor == "" {
		warnings = append(warnings, FlagNoAuthor)
	}
	if rec.Year == 0 {
		warnings = append(warnings, FlagNoYear)
	}

	newer := rec.Year > 0 && found.Year > rec.Year
	message := MessageNotNewer
	if newer {
		message = MessageNewer
	}
	if len(warnings) > 0 {
		message += flagSeparator + strings.Join(warnings, ", ")
	}

	return Outcome{
		Index:        rec.Index,
		Status:       status,
		Found:        found,
		InputYear:    rec.Year,
		PriorityISBN: rec.ISBN,
		SearchTitle:  searchTitle,
		SearchAuthor: searchAuthor,
		SourceStatus: lookup.Status,
		Message:      message,
		Warnings:     warnings,
		Newer:        newer,
		Err:          lookup.Err,
	}
}
