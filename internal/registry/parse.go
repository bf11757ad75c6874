package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/normalize"
	"github.com/PuerkitoBio/goquery"
)

const (
	minRegistryYear = 1800
	maxRegistryYear = 2100
)

var (
	authorPattern = regexp.MustCompile(`(?s)Autor/es:\s*(.*?)(?:\n|$|F\. Edición:|ISBN:)`)
	spaceRun      = regexp.MustCompile(`\s+`)

	// tried in order; the first in-range hit wins
	yearPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\((\d{4})\)`),
		regexp.MustCompile(`(?i)F\.\s*Edición:\s*\D*(\d{4})\b`),
		regexp.MustCompile(`(?i)F\.\s*Publicación:\s*\D*(\d{4})\b`),
		regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`),
	}
)

// Entry is one result block of the registry's result page. Fields the page
// does not show are normalize.Unavailable; Year is 0 when none was found.
type Entry struct {
	Title  string
	Author string
	ISBN   string
	Year   int
}

// ParseResults extracts every div.isbnResultado block from a result page.
func ParseResults(html string) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing registry results: %w", err)
	}

	var entries []Entry
	doc.Find("div.isbnResultado").Each(func(_ int, s *goquery.Selection) {
		entries = append(entries, parseEntry(s))
	})
	return entries, nil
}

func parseEntry(s *goquery.Selection) Entry {
	e := Entry{
		Title:  normalize.Unavailable,
		Author: normalize.Unavailable,
		ISBN:   normalize.Unavailable,
	}

	desc := s.Find("div.isbnResDescripcion")
	if t := strings.TrimSpace(desc.Find("a[href*='tituloDetalle']").First().Text()); t != "" {
		e.Title = t
	}

	var paragraphs []string
	desc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := textWithBreaks(p)
		paragraphs = append(paragraphs, text)
		if e.Author != normalize.Unavailable || !strings.Contains(text, "Autor/es:") {
			return
		}
		if m := authorPattern.FindStringSubmatch(text); m != nil {
			if a := spaceRun.ReplaceAllString(strings.TrimSpace(m[1]), " "); a != "" {
				e.Author = a
			}
		}
	})

	if isbn := entryISBN(s); isbn != "" {
		e.ISBN = isbn
	}
	e.Year = descriptionYear(strings.Join(paragraphs, " "))
	return e
}

func entryISBN(s *goquery.Selection) string {
	if t := strings.TrimSpace(s.Find("div.camposCheck a[href*='tituloDetalle']").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(s.Find("div.camposIsbnRes span.isbn").First().Find("strong").First().Text())
}

func descriptionYear(text string) int {
	for _, re := range yearPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if y, err := strconv.Atoi(m[1]); err == nil && y >= minRegistryYear && y <= maxRegistryYear {
			return y
		}
	}
	return 0
}

// textWithBreaks is Selection.Text with <br> rendered as a newline, the way
// the page shows it.
func textWithBreaks(s *goquery.Selection) string {
	clone := s.Clone()
	clone.Find("br").ReplaceWithHtml("\n")
	return clone.Text()
}
