package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/cmdutil"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/csvutil"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/datastore"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/fileutil"
	resolver "github.com/Dfera000/Buscador-nuevas-ediciones/internal/resolve"
)

// Result columns, written after the input columns.
const (
	ColumnYearCleaned  = "Year_cleaned_from_input"
	ColumnPriorityISBN = "ISBN_prioritario_input"
	ColumnSearchTitle  = "Search_title"
	ColumnSearchAuthor = "Search_author"
	ColumnFoundTitle   = "Found_title"
	ColumnFoundAuthor  = "Found_author"
	ColumnFoundISBN    = "Found_ISBN"
	ColumnFoundYear    = "Found_year"
	ColumnFoundSource  = "Found_source"
	ColumnResult       = "Resultado"
	ColumnStatus       = "Status"
	ColumnSourceStatus = "Source_status"
)

var resultColumns = []string{
	ColumnYearCleaned,
	ColumnPriorityISBN,
	ColumnSearchTitle,
	ColumnSearchAuthor,
	ColumnFoundTitle,
	ColumnFoundAuthor,
	ColumnFoundISBN,
	ColumnFoundYear,
	ColumnFoundSource,
	ColumnResult,
	ColumnStatus,
	ColumnSourceStatus,
}

// Report is the JSON and YAML rendition of a run.
type Report struct {
	RunID     string             `json:"run_id" yaml:"run_id"`
	Input     string             `json:"input" yaml:"input"`
	StartedAt time.Time          `json:"started_at" yaml:"started_at"`
	Summary   *resolver.Summary  `json:"summary" yaml:"summary"`
	Outcomes  []resolver.Outcome `json:"outcomes" yaml:"outcomes"`
}

// outputs fans each outcome out to the result sheet, the optional
// datastore and the optional report files.
type outputs struct {
	opts    Options
	runID   string
	started time.Time

	file  *os.File
	sheet *csvutil.Writer
	store *datastore.SQLiteStore

	outcomes []resolver.Outcome
	summary  *resolver.Summary
}

func openOutputs(opts Options, inputHeader []string, runID string) (*outputs, error) {
	if opts.Output == "" {
		return nil, errors.New("output CSV file is required")
	}
	if fileutil.FileExists(opts.Output) && !opts.Overwrite {
		return nil, fmt.Errorf("output file %s already exists (use --overwrite to replace it)", opts.Output)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	sheet, err := csvutil.NewWriter(f, sheetHeader(inputHeader))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	out := &outputs{opts: opts, runID: runID, started: now(), file: f, sheet: sheet}

	if opts.DBPath != "" {
		store := datastore.NewSQLiteStore(opts.DBPath)
		if err := store.Connect(); err != nil {
			out.close()
			return nil, err
		}
		if err := store.CreateTable(datastore.OutcomesSchema); err != nil {
			out.close()
			_ = store.Close()
			return nil, err
		}
		out.store = store
	}

	return out, nil
}

// sheetHeader keeps the named input columns in file order and appends the
// result columns that are not already there.
func sheetHeader(input []string) []string {
	header := make([]string, 0, len(input)+len(resultColumns))
	for _, name := range input {
		if name != "" && !slices.Contains(header, name) {
			header = append(header, name)
		}
	}
	for _, name := range resultColumns {
		if !slices.Contains(header, name) {
			header = append(header, name)
		}
	}
	return header
}

func (o *outputs) write(rec resolver.Record, outcome resolver.Outcome) error {
	if err := o.sheet.WriteRow(sheetRow(rec, outcome)); err != nil {
		return fmt.Errorf("record %d: %w", rec.Index, err)
	}

	if o.store != nil {
		if err := o.store.BatchInsert(datastore.OutcomesTable, []map[string]any{o.storeRow(rec, outcome)}); err != nil {
			slog.Warn("Failed to store outcome", "record", rec.Index, "error", err)
		}
	}

	if o.wantsReport() {
		o.outcomes = append(o.outcomes, outcome)
	}
	return nil
}

func (o *outputs) wantsReport() bool {
	return o.opts.JSONOutput != "" || o.opts.YAMLOutput != ""
}

// finish writes the report files. It is called once the batch is over.
func (o *outputs) finish() error {
	if !o.wantsReport() {
		return nil
	}

	rep := Report{
		RunID:     o.runID,
		Input:     o.opts.Input,
		StartedAt: o.started.UTC(),
		Summary:   o.summary,
		Outcomes:  o.outcomes,
	}

	var errs []error
	if o.opts.JSONOutput != "" {
		if _, err := fileutil.WriteJSONFile(rep, o.opts.JSONOutput, o.opts.Overwrite); err != nil {
			errs = append(errs, err)
		}
	}
	if o.opts.YAMLOutput != "" {
		if _, err := fileutil.WriteYAMLFile(rep, o.opts.YAMLOutput, o.opts.Overwrite); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *outputs) close() {
	if o.store != nil {
		if err := o.store.Close(); err != nil {
			slog.Warn("Failed to close datastore", "error", err)
		}
	}
	if err := o.file.Close(); err != nil {
		slog.Warn("Failed to close output file", "file", o.opts.Output, "error", err)
	}
}

// sheetRow is the input row plus the result columns. A search author that
// was not used shows as N/A; found columns stay empty without an edition.
func sheetRow(rec resolver.Record, o resolver.Outcome) map[string]string {
	row := make(map[string]string, len(rec.Fields)+len(resultColumns))
	for k, v := range rec.Fields {
		row[k] = v
	}

	row[ColumnYearCleaned] = ""
	if o.InputYear > 0 {
		row[ColumnYearCleaned] = strconv.Itoa(o.InputYear)
	}
	row[ColumnPriorityISBN] = o.PriorityISBN
	row[ColumnSearchTitle] = o.SearchTitle
	row[ColumnSearchAuthor] = o.SearchAuthor
	if row[ColumnSearchAuthor] == "" {
		row[ColumnSearchAuthor] = "N/A"
	}
	row[ColumnResult] = o.Message
	row[ColumnStatus] = string(o.Status)
	row[ColumnSourceStatus] = string(o.SourceStatus)

	if f := o.Found; f != nil {
		row[ColumnFoundTitle] = f.Title
		row[ColumnFoundAuthor] = f.Author
		row[ColumnFoundISBN] = f.ISBN
		if f.Year > 0 {
			row[ColumnFoundYear] = strconv.Itoa(f.Year)
		}
		row[ColumnFoundSource] = string(f.Source)
	} else {
		for _, name := range []string{ColumnFoundTitle, ColumnFoundAuthor, ColumnFoundISBN, ColumnFoundYear, ColumnFoundSource} {
			row[name] = ""
		}
	}
	return row
}

// storedOutcome is one row of datastore.OutcomesTable.
type storedOutcome struct {
	RunID        string
	RecordIndex  int
	Title        string
	Author       string
	InputYear    *int
	PriorityISBN string
	Language     string
	SearchTitle  string
	SearchAuthor string
	Status       string
	SourceStatus string
	FoundTitle   *string
	FoundAuthor  *string
	FoundISBN    *string
	FoundYear    *int
	FoundSource  *string
	Message      string
	Newer        bool
	ResolvedAt   time.Time
}

func (o *outputs) storeRow(rec resolver.Record, outcome resolver.Outcome) map[string]any {
	row := storedOutcome{
		RunID:        o.runID,
		RecordIndex:  rec.Index,
		Title:        rec.Title,
		Author:       rec.Author,
		InputYear:    nonZero(outcome.InputYear),
		PriorityISBN: outcome.PriorityISBN,
		Language:     string(rec.Language),
		SearchTitle:  outcome.SearchTitle,
		SearchAuthor: outcome.SearchAuthor,
		Status:       string(outcome.Status),
		SourceStatus: string(outcome.SourceStatus),
		Message:      outcome.Message,
		Newer:        outcome.Newer,
		ResolvedAt:   now(),
	}
	if f := outcome.Found; f != nil {
		source := string(f.Source)
		row.FoundTitle = &f.Title
		row.FoundAuthor = &f.Author
		row.FoundISBN = &f.ISBN
		row.FoundYear = nonZero(f.Year)
		row.FoundSource = &source
	}
	return cmdutil.StructToRow(row, cmdutil.RowOptions{})
}

func nonZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
