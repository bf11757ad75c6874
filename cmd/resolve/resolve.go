// Package resolve runs one batch: it reads the input sheet, owns the browser
// session, drives the resolution engine and writes every requested output.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/automation"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/cache"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/catalog"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/config"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/csvutil"
	apperrors "github.com/Dfera000/Buscador-nuevas-ediciones/internal/errors"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/registry"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/report"
	resolver "github.com/Dfera000/Buscador-nuevas-ediciones/internal/resolve"
)

// Options holds the paths and switches of one batch run.
type Options struct {
	Input      string
	Output     string
	JSONOutput string
	YAMLOutput string
	DBPath     string
	Overwrite  bool
	Quiet      bool
	Stdout     io.Writer
}

type browser interface {
	registry.Session
	Close()
}

var (
	startBrowser = func(ctx context.Context) (browser, error) {
		s, err := automation.NewBrowser(ctx, nil, automation.AutomationOptions{Headless: config.Headless})
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	newSources = func() (resolver.Registry, resolver.Catalog) {
		reg := registry.NewClient(
			registry.WithSearchURL(config.RegistryURL),
			registry.WithPageTimeout(config.RegistryPageTimeout),
			registry.WithResultsTimeout(config.RegistryResultsTimeout),
			registry.WithCookieTimeout(config.RegistryCookieTimeout),
		)
		cat := catalog.NewClient(
			catalog.WithBaseURL(config.CatalogBaseURL),
			catalog.WithTimeout(config.CatalogTimeout),
			catalog.WithRetryAttempts(config.CatalogRetries),
			catalog.WithPause(config.CatalogPause),
			catalog.WithCache(cache.Enabled()),
		)
		return reg, cat
	}

	now = time.Now
)

// Run resolves every row of opts.Input and writes the result sheet to
// opts.Output, one row per record as soon as it is resolved.
func Run(ctx context.Context, opts Options) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	header, err := csvutil.ReadHeader(opts.Input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	rows, err := csvutil.ReadRows(opts.Input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	records := make([]resolver.Record, len(rows))
	for i, row := range rows {
		records[i] = resolver.NewRecord(i+1, row)
	}

	runID := uuid.NewString()
	slog.Info("Loaded records", "file", opts.Input, "records", len(records), "run_id", runID)

	out, err := openOutputs(opts, header, runID)
	if err != nil {
		return err
	}
	defer out.close()

	handle, closeBrowser := openBrowser(ctx, records)
	defer closeBrowser()

	reg, cat := newSources()
	engine := resolver.NewEngine(reg, cat, resolver.WithAllowMissingYear(config.AllowMissingYear))

	var printer *report.Printer
	if !opts.Quiet {
		printer = report.NewPrinter(opts.Stdout)
	}

	for ev := range engine.Run(ctx, records, handle) {
		switch ev.Kind {
		case resolver.EventBatchStart:
			slog.Info("Batch started", "run_id", runID, "detail", ev.Message)

		case resolver.EventFallback:
			if printer != nil {
				if err := printer.Notice(ev.Message); err != nil {
					return err
				}
			}

		case resolver.EventOutcome:
			o := *ev.Outcome
			rec := records[o.Index-1]
			slog.Debug("Record resolved", "record", o.Index, "status", o.Status, "message", o.Message)
			if err := out.write(rec, o); err != nil {
				return err
			}
			if printer != nil {
				if err := printer.Outcome(rec.Title, o); err != nil {
					return err
				}
			}

		case resolver.EventBatchEnd:
			slog.Info("Batch finished", "run_id", runID, "summary", ev.Summary.String())
			out.summary = ev.Summary
			if printer != nil {
				if err := printer.Summary(ev.Summary); err != nil {
					return err
				}
			}
		}
	}

	return out.finish()
}

// openBrowser starts a browser only when some record will search the
// registry. Without one the returned handle makes every registry lookup
// report a missing browser, so those records go to the catalog fallback.
func openBrowser(ctx context.Context, records []resolver.Record) (*registry.Handle, func()) {
	if !resolver.HasLanguage(records, resolver.LanguageES) {
		slog.Info("No Spanish records, browser not started")
		return registry.NewHandle(nil), func() {}
	}

	s, err := startBrowser(ctx)
	if err != nil {
		var sessionErr *apperrors.SessionError
		if !errors.As(err, &sessionErr) {
			err = apperrors.NewSessionError("start", err)
		}
		slog.Error("Browser unavailable, registry searches disabled", "error", err)
		return registry.NewHandle(nil), func() {}
	}

	slog.Info("Browser started", "headless", config.Headless)
	return registry.NewHandle(s), func() {
		s.Close()
		slog.Info("Browser closed")
	}
}
