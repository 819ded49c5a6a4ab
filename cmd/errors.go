package cmd

import "github.com/pkg/errors"

// Error kinds. Every failure returned by the pipeline wraps exactly one of
// these, test with errors.Is.
var (
	ErrDataUnavailable = errors.New("dataset unavailable")
	ErrTypeConversion  = errors.New("value cannot be converted to an integer")
	ErrIOFailure       = errors.New("cannot write destination")
)

// kindError tags an underlying error with one of the error kinds. Both the
// kind and the cause match errors.Is.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.cause.Error() + ": " + e.kind.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

func withKind(kind, cause error) error {
	return &kindError{kind: kind, cause: cause}
}
