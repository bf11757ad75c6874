package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Writer writes rows under a fixed header and flushes after every row, so a
// crash mid-batch keeps everything written so far.
type Writer struct {
	w      *csv.Writer
	header []string
}

// NewWriter writes header to out and returns a Writer for the rows.
func NewWriter(out io.Writer, header []string) (*Writer, error) {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &Writer{w: w, header: header}, nil
}

// WriteRow writes the values of row in header order; missing keys are
// written as empty cells.
func (w *Writer) WriteRow(row map[string]string) error {
	record := make([]string, len(w.header))
	for i, name := range w.header {
		record[i] = row[name]
	}
	if err := w.w.Write(record); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.w.Flush()
	return w.w.Error()
}
