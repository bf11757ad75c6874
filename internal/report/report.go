// Package report prints batch outcomes to a terminal, coloured the way the
// result sheet is: green for a newer edition, yellow for a newer edition
// with warnings, red for failures.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/resolve"
	"github.com/charmbracelet/lipgloss"
)

// Tone is the highlight an outcome gets.
type Tone int

const (
	ToneNone Tone = iota
	ToneGreen
	ToneYellow
	ToneRed
)

func (t Tone) String() string {
	switch t {
	case ToneGreen:
		return "green"
	case ToneYellow:
		return "yellow"
	case ToneRed:
		return "red"
	default:
		return "none"
	}
}

// ToneOf classifies an outcome. A success without a newer edition is not
// highlighted.
func ToneOf(o resolve.Outcome) Tone {
	switch {
	case !o.Status.Success():
		return ToneRed
	case !o.Newer:
		return ToneNone
	case len(o.Warnings) > 0:
		return ToneYellow
	default:
		return ToneGreen
	}
}

// Printer writes one line per outcome.
type Printer struct {
	w      io.Writer
	styles map[Tone]lipgloss.Style
	label  lipgloss.Style
	faint  lipgloss.Style
}

// NewPrinter creates a Printer for w. Colours are dropped when w is not a
// terminal.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	fill := func(bg string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color("#1F1F1F")).Background(lipgloss.Color(bg)).Padding(0, 1)
	}
	return &Printer{
		w: w,
		styles: map[Tone]lipgloss.Style{
			ToneNone:   r.NewStyle().Padding(0, 1),
			ToneGreen:  fill("#C6EFCE"),
			ToneYellow: fill("#FFEB9C"),
			ToneRed:    fill("#FFC7CE"),
		},
		label: r.NewStyle().Bold(true),
		faint: r.NewStyle().Faint(true),
	}
}

// Outcome prints o for the record titled title.
func (p *Printer) Outcome(title string, o resolve.Outcome) error {
	var b strings.Builder
	b.WriteString(p.label.Render(fmt.Sprintf("#%d", o.Index)))
	b.WriteString(" ")
	b.WriteString(title)
	if o.Found != nil {
		fmt.Fprintf(&b, " → %s (%d", o.Found.Title, o.Found.Year)
		if o.Found.ISBN != "" {
			fmt.Fprintf(&b, ", %s", o.Found.ISBN)
		}
		b.WriteString(")")
		b.WriteString(p.faint.Render(" [" + string(o.Found.Source) + "]"))
	}
	b.WriteString(" ")
	b.WriteString(p.styles[ToneOf(o)].Render(o.Message))

	_, err := fmt.Fprintln(p.w, b.String())
	return err
}

// Summary prints the end-of-batch counts.
func (p *Printer) Summary(s *resolve.Summary) error {
	if s == nil {
		return nil
	}
	_, err := fmt.Fprintln(p.w, p.label.Render(s.String()))
	return err
}

// Notice prints a progress line between outcomes, such as a fallback.
func (p *Printer) Notice(msg string) error {
	_, err := fmt.Fprintln(p.w, p.faint.Render("  "+msg))
	return err
}
