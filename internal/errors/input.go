package errors

import "errors"

// InputError is a record-level problem with the user's data: missing year,
// empty title, unsupported language. No source is queried for such records.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "input failure — " + e.Reason
}

// NewInputError creates an InputError with the provided reason.
func NewInputError(reason string) *InputError {
	return &InputError{Reason: reason}
}

// IsInputError reports whether err is an InputError (even when wrapped).
func IsInputError(err error) bool {
	var inErr *InputError
	return errors.As(err, &inErr)
}
