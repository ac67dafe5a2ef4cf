package parser

import (
	"bytes"
	"context"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/format"
)

// DelimitedTextParser reads .txt files as tabular data. The delimiter is
// picked from the header line: tab when one is present, comma otherwise.
type DelimitedTextParser struct{}

func (p *DelimitedTextParser) Kind() format.Kind {
	return format.KindDelimitedText
}

func (p *DelimitedTextParser) Parse(ctx context.Context, data []byte) ([]domain.RawRecord, error) {
	records, err := readDelimited(ctx, data, detectDelimiter(data))
	if err != nil {
		return nil, &ParseError{Format: format.KindDelimitedText, Err: err}
	}
	return records, nil
}

func detectDelimiter(data []byte) rune {
	firstLine := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		firstLine = data[:idx]
	}
	if bytes.ContainsRune(firstLine, '\t') {
		return '\t'
	}
	return ','
}
