package csvutil

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// Comma is the field delimiter. If 0, it is guessed from the header
	// line: ';' when the header has semicolons and no commas, else ','.
	Comma rune

	// SkipInvalid controls whether to skip invalid records or return an error.
	SkipInvalid bool
}

// Row is one data row keyed by header name. Empty cells are absent.
type Row map[string]string

// ReadRows reads a CSV file with a header line into header-keyed rows.
func ReadRows(filename string) ([]Row, error) {
	return ProcessCSV(filename, func(r Row) (Row, error) { return r, nil }, ProcessorOptions{SkipInvalid: true})
}

// ProcessCSV reads a CSV file with a header line and parses each row into
// type T. Returns a slice of parsed items or an error.
func ProcessCSV[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	// File existence check
	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	return parseCSV(csvFile, parser, opts)
}

// ReadHeader returns the trimmed column names of a CSV file, in file order.
func ReadHeader(filename string) ([]string, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	_, header, err := newReader(csvFile, ProcessorOptions{})
	return header, err
}

// newReader skips a UTF-8 BOM, settles the delimiter and consumes the
// header line.
func newReader(r io.Reader, opts ProcessorOptions) (*csv.Reader, []string, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	comma := opts.Comma
	if comma == 0 {
		comma = sniffDelimiter(br)
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return reader, header, nil
}

func parseCSV[T any](r io.Reader, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	reader, header, err := newReader(r, opts)
	if err != nil {
		return nil, err
	}

	var items []T
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			slog.Warn("Error reading record", "line", line, "error", err)
			continue
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i >= len(record) || name == "" {
				continue
			}
			if cell := strings.TrimSpace(record[i]); cell != "" {
				row[name] = cell
			}
		}

		item, err := parser(row)
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid record", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}

		items = append(items, item)
	}

	return items, nil
}

func sniffDelimiter(br *bufio.Reader) rune {
	// Peek returns what it has (and an error) when the file is shorter
	peeked, _ := br.Peek(4096)
	first, _, _ := bytes.Cut(peeked, []byte("\n"))
	if bytes.Contains(first, []byte(";")) && !bytes.Contains(first, []byte(",")) {
		return ';'
	}
	return ','
}
