package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/resolve"
)

func TestToneOf(t *testing.T) {
	tests := []struct {
		name    string
		outcome resolve.Outcome
		want    Tone
	}{
		{"newer without warnings", resolve.Outcome{Status: resolve.StatusOK, Newer: true}, ToneGreen},
		{"newer by fallback", resolve.Outcome{Status: resolve.StatusOKFallback, Newer: true}, ToneGreen},
		{"newer with warnings", resolve.Outcome{Status: resolve.StatusOK, Newer: true, Warnings: []string{resolve.FlagNoAuthor}}, ToneYellow},
		{"no newer version", resolve.Outcome{Status: resolve.StatusOK, Warnings: []string{resolve.FlagTitleDiffers}}, ToneNone},
		{"not found", resolve.Outcome{Status: resolve.StatusNotFound}, ToneRed},
		{"input error", resolve.Outcome{Status: resolve.StatusInputError}, ToneRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToneOf(tt.outcome))
		})
	}
}

func TestPrinterOutcome(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	err := p.Outcome("Niebla", resolve.Outcome{
		Index:   4,
		Status:  resolve.StatusOKFallback,
		Newer:   true,
		Message: resolve.MessageNewer,
		Found:   &edition.Edition{Title: "Niebla", Year: 2015, ISBN: "9788437604947", Source: edition.SourceCatalog},
	})
	assert.NoError(t, err)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "#4 Niebla → Niebla (2015, 9788437604947)"))
	assert.Contains(t, line, "[catalog]")
	assert.Contains(t, line, resolve.MessageNewer)
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestPrinterFailureAndSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	assert.NoError(t, p.Outcome("Nada", resolve.Outcome{Index: 1, Status: resolve.StatusTimeout, Message: "failure — timeout"}))
	assert.NoError(t, p.Summary(&resolve.Summary{Total: 1, Processed: 1, ByStatus: map[resolve.Status]int{resolve.StatusTimeout: 1}}))
	assert.NoError(t, p.Summary(nil))

	out := buf.String()
	assert.Contains(t, out, "failure — timeout")
	assert.NotContains(t, out, "→")
	assert.Contains(t, out, "processed 1/1 records")
}

func TestPrinterNotice(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	assert.NoError(t, p.Notice("record 3: registry timeout, trying OpenLibrary"))
	assert.Equal(t, "  record 3: registry timeout, trying OpenLibrary\n", buf.String())
}

func TestToneString(t *testing.T) {
	assert.Equal(t, "yellow", ToneYellow.String())
	assert.Equal(t, "none", Tone(42).String())
}
