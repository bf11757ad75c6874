package resolve

import (
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/edition"
)

// Status classifies a record's outcome.
type Status string

const (
	StatusOK         Status = "ok"
	StatusOKFallback Status = "ok_fallback"
	StatusNotFound   Status = "not_found"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
	StatusInputError Status = "input_error"
)

// Success reports whether an edition was found, directly or by fallback.
func (s Status) Success() bool {
	return s == StatusOK || s == StatusOKFallback
}

// Warning flags attached to successful outcomes.
const (
	FlagTitleDiffers = "title differs"
	FlagNoAuthor     = "no author"
	FlagNoYear       = "no comparison year"
)

// Result messages.
const (
	MessageNewer    = "success — newer edition found"
	MessageNotNewer = "success — no newer version"
	failurePrefix   = "failure — "
	flagSeparator   = " — "
)

// Outcome is the classified result for one record. SearchAuthor is empty
// when no author term was used.
type Outcome struct {
	Index        int              `json:"index" yaml:"index"`
	Status       Status           `json:"status" yaml:"status"`
	Found        *edition.Edition `json:"found,omitempty" yaml:"found,omitempty"`
	InputYear    int              `json:"input_year,omitempty" yaml:"input_year,omitempty"`
	PriorityISBN string           `json:"priority_isbn,omitempty" yaml:"priority_isbn,omitempty"`
	SearchTitle  string           `json:"search_title" yaml:"search_title"`
	SearchAuthor string           `json:"search_author" yaml:"search_author"`
	SourceStatus edition.Status   `json:"source_status,omitempty" yaml:"source_status,omitempty"`
	Message      string           `json:"message" yaml:"message"`
	Warnings     []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Newer        bool             `json:"newer" yaml:"newer"`
	Err          error            `json:"-" yaml:"-"`
}

// statusFor maps a source's raw status onto the outcome enum.
func statusFor(raw edition.Status) Status {
	switch {
	case raw == edition.StatusOK:
		return StatusOK
	case raw.IsNotFound():
		return StatusNotFound
	case raw == edition.StatusTimeout:
		return StatusTimeout
	default:
		return StatusError
	}
}
