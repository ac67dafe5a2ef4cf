package parser

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/format"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// CSVParser reads comma-separated files with a header row.
type CSVParser struct{}

func (p *CSVParser) Kind() format.Kind {
	return format.KindCSV
}

func (p *CSVParser) Parse(ctx context.Context, data []byte) ([]domain.RawRecord, error) {
	records, err := readDelimited(ctx, data, ',')
	if err != nil {
		return nil, &ParseError{Format: format.KindCSV, Err: err}
	}
	return records, nil
}

func readDelimited(ctx context.Context, data []byte, comma rune) ([]domain.RawRecord, error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = comma
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return recordsFromRows(ctx, rows)
}
