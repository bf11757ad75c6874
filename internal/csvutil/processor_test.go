package csvutil

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	env := testutil.NewTestEnv(t)

	path := env.WriteFileString("books.csv", `Title,Author,year,Idioma,ISBN
Niebla,"Unamuno, Miguel de",1914,es,
The Road,Cormac McCarthy,,no-es,9780307387899
`)

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{"Title": "Niebla", "Author": "Unamuno, Miguel de", "year": "1914", "Idioma": "es"}, rows[0])
	_, hasYear := rows[1]["year"]
	assert.False(t, hasYear, "empty cells are absent")
	assert.Equal(t, "9780307387899", rows[1]["ISBN"])
}

func TestReadRowsSemicolonsAndBOM(t *testing.T) {
	env := testutil.NewTestEnv(t)

	path := env.WriteFileString("books.csv", "\ufeffTitle;year;Idioma\nLa colmena;1951;es\n")

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"Title": "La colmena", "year": "1951", "Idioma": "es"}, rows[0])
}

func TestReadHeader(t *testing.T) {
	env := testutil.NewTestEnv(t)

	path := env.WriteFileString("books.csv", "\ufeffTitle; Author ;year;Idioma;ISBN;Notas\nNiebla;Unamuno;1914;es;;\n")

	header, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Author", "year", "Idioma", "ISBN", "Notas"}, header)
}

func TestReadRowsShortAndLongRecords(t *testing.T) {
	env := testutil.NewTestEnv(t)

	path := env.WriteFileString("books.csv", "Title,year\nNada\nTiempo de silencio,1962,extra\n")

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"Title": "Nada"}, rows[0])
	assert.Equal(t, Row{"Title": "Tiempo de silencio", "year": "1962"}, rows[1])
}

func TestProcessCSV_EmptyFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.WriteFileString("empty.csv", "")

	_, err := ReadRows(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestProcessCSV_MissingFile(t *testing.T) {
	_, err := ReadRows("/nonexistent/books.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open CSV file")
}

func TestProcessCSV_ParserErrors(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.WriteFileString("books.csv", "Title\nA\nB\n")

	parser := func(r Row) (string, error) {
		if r["Title"] == "A" {
			return "", errors.New("bad row")
		}
		return r["Title"], nil
	}

	_, err := ProcessCSV(path, parser, ProcessorOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	items, err := ProcessCSV(path, parser, ProcessorOptions{SkipInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, items)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, []string{"Title", "Resultado"})
	require.NoError(t, err)
	assert.Equal(t, "Title,Resultado\n", buf.String(), "header is flushed immediately")

	require.NoError(t, w.WriteRow(map[string]string{"Title": "Niebla, nivola", "Resultado": "success — no newer version"}))
	require.NoError(t, w.WriteRow(map[string]string{"Title": "Nada"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"Title,Resultado",
		`"Niebla, nivola",success — no newer version`,
		"Nada,",
	}, lines)
}
