// Package edition holds the shapes shared by the catalog sources and the
// logic that picks the most recent matching edition among candidates.
package edition

// Source names where a candidate or a selected edition came from.
type Source string

const (
	SourceRegistry Source = "registry"
	SourceCatalog  Source = "catalog"
)

// Status is the raw outcome a source reports for one lookup.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNotFound    Status = "not found"
	StatusNoYear      Status = "not found (no year)"
	StatusNoCriterion Status = "not found (no criterion match)"
	StatusTimeout     Status = "timeout"
	StatusEmptyQuery  Status = "empty query"
	StatusUnexpected  Status = "unexpected error"
	StatusNoBrowser   Status = "browser unavailable"
)

// UnknownAuthor is shown when neither the edition nor the query names one.
const UnknownAuthor = "Unknown"

// IsNotFound reports whether s is one of the "nothing usable" statuses.
func (s Status) IsNotFound() bool {
	return s == StatusNotFound || s == StatusNoYear || s == StatusNoCriterion
}

// Candidate is one edition as a source returned it, before selection.
type Candidate struct {
	Key         string   `json:"key,omitempty"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors,omitempty"`
	ISBN13      []string `json:"isbn_13,omitempty"`
	ISBN10      []string `json:"isbn_10,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	Year        int      `json:"year,omitempty"`
	Source      Source   `json:"source"`
}

// Edition is the selected candidate, flattened for output.
type Edition struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	ISBN   string `json:"isbn" yaml:"isbn"`
	Year   int    `json:"year" yaml:"year"`
	Source Source `json:"source" yaml:"source"`
}

// Lookup is what a source hands back for one query. Found is set only
// when Status is StatusOK. Err carries diagnostics and never drives control
// flow.
type Lookup struct {
	Status Status
	Found  *Edition
	Err    error
}

// OK reports whether the lookup produced an edition.
func (l Lookup) OK() bool {
	return l.Status == StatusOK && l.Found != nil
}
