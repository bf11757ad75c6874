package resolve

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/registry"
)

// EventKind tells the consumer what an Event carries.
type EventKind int

const (
	EventBatchStart EventKind = iota
	EventFallback
	EventOutcome
	EventBatchEnd
)

func (k EventKind) String() string {
	switch k {
	case EventBatchStart:
		return "batch_start"
	case EventFallback:
		return "fallback"
	case EventOutcome:
		return "outcome"
	case EventBatchEnd:
		return "batch_end"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one element of a batch run: a milestone, or a record's outcome.
// Outcome is set only for EventOutcome, Summary only for EventBatchEnd.
type Event struct {
	Kind    EventKind
	Message string
	Outcome *Outcome
	Summary *Summary
}

// Summary counts outcomes by status.
type Summary struct {
	Total     int            `json:"total" yaml:"total"`
	Processed int            `json:"processed" yaml:"processed"`
	ByStatus  map[Status]int `json:"by_status" yaml:"by_status"`
	Cancelled bool           `json:"cancelled" yaml:"cancelled"`
}

func (s *Summary) add(o Outcome) {
	s.Processed++
	s.ByStatus[o.Status]++
}

// String renders the end-of-batch line.
func (s *Summary) String() string {
	ok := s.ByStatus[StatusOK] + s.ByStatus[StatusOKFallback]
	msg := fmt.Sprintf("processed %d/%d records: %d found (%d by fallback), %d not found, %d timeouts, %d errors, %d input errors",
		s.Processed, s.Total, ok, s.ByStatus[StatusOKFallback], s.ByStatus[StatusNotFound],
		s.ByStatus[StatusTimeout], s.ByStatus[StatusError], s.ByStatus[StatusInputError])
	if s.Cancelled {
		msg += " (cancelled)"
	}
	return msg
}

// Run resolves records in order and yields a batch start event, one
// outcome event per record (with fallback notices in between) and a batch
// end event. Nothing happens until the sequence is iterated. A cancelled
// ctx stops the batch between records; the end event is still yielded.
func (e *Engine) Run(ctx context.Context, records []Record, h *registry.Handle) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		summary := &Summary{Total: len(records), ByStatus: map[Status]int{}}

		if !yield(Event{Kind: EventBatchStart, Message: fmt.Sprintf("processing %d records", len(records))}) {
			return
		}

		notify := func(msg string) bool {
			return yield(Event{Kind: EventFallback, Message: msg})
		}

		for i, rec := range records {
			if err := ctx.Err(); err != nil {
				slog.Warn("Batch cancelled", "processed", summary.Processed, "total", len(records), "error", err)
				summary.Cancelled = true
				break
			}

			out, done := e.resolve(ctx, rec, h, notify)
			if !done {
				return
			}
			summary.add(out)

			msg := fmt.Sprintf("record %d (%d/%d): %s", rec.Index, i+1, len(records), out.Message)
			if !yield(Event{Kind: EventOutcome, Message: msg, Outcome: &out}) {
				return
			}
		}

		yield(Event{Kind: EventBatchEnd, Message: summary.String(), Summary: summary})
	}
}
