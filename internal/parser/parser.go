// Package parser converts raw file bytes into flat key-value records.
//
// One parser exists per supported format. All parsers share the same
// leniency policy for tabular input: the first row is the header, and data
// rows shorter than the header are padded with nulls for the missing
// trailing fields rather than rejected. Structural failures (malformed CSV
// quoting, invalid JSON, corrupt workbooks) are never swallowed; they fail
// the whole parse with a ParseError.
package parser

import (
	"context"
	"fmt"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/format"
)

// Parser turns an uploaded file body into a sequence of raw records.
type Parser interface {
	Kind() format.Kind
	Parse(ctx context.Context, data []byte) ([]domain.RawRecord, error)
}

// ParseError reports a fatal structural problem in the uploaded file.
type ParseError struct {
	Format format.Kind
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var parsers = map[format.Kind]Parser{
	format.KindCSV:           &CSVParser{},
	format.KindDelimitedText: &DelimitedTextParser{},
	format.KindJSON:          &JSONParser{},
	format.KindSpreadsheet:   &SpreadsheetParser{},
}

// ForKind returns the parser registered for a detected format kind.
func ForKind(kind format.Kind) (Parser, error) {
	p, ok := parsers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", format.ErrUnsupportedFormat, kind)
	}
	return p, nil
}
