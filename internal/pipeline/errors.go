package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/format"
	"github.com/fieldpipe/fieldpipe/internal/parser"
)

// ErrorKind is the machine-readable classification of a terminal pipeline
// failure.
type ErrorKind string

const (
	KindUnsupportedFormat    ErrorKind = "UNSUPPORTED_FORMAT"
	KindParseError           ErrorKind = "PARSE_ERROR"
	KindInvalidMappingConfig ErrorKind = "INVALID_MAPPING_CONFIG"
	KindStoreError           ErrorKind = "STORE_ERROR"
	KindCancelled            ErrorKind = "CANCELLED"
	KindInternal             ErrorKind = "INTERNAL"
)

// Error is a terminal pipeline failure: a machine-readable kind plus a
// human-readable message. Runs that fail with an Error produce no summary.
type Error struct {
	Kind    ErrorKind
	Message string
	err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), err: err}
}

// classify assigns a kind to an error raised by a pipeline stage.
// Cancellation wins over any stage-specific classification so a parse
// aborted mid-file is not mistaken for a malformed file.
func classify(err error) *Error {
	var known *Error
	if errors.As(err, &known) {
		return known
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindCancelled, err)
	}
	if errors.Is(err, format.ErrUnsupportedFormat) {
		return newError(KindUnsupportedFormat, err)
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return newError(KindParseError, err)
	}
	if errors.Is(err, domain.ErrInvalidMappingConfig) {
		return newError(KindInvalidMappingConfig, err)
	}
	return newError(KindInternal, err)
}
