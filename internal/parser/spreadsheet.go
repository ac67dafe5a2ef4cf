package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/format"
)

// SpreadsheetParser reads the first sheet of an OOXML (.xlsx) workbook. The
// first row is the header; short rows follow the same null-padding leniency
// as CSV. Legacy binary .xls workbooks are not readable; they fail the open
// step and surface as a ParseError.
type SpreadsheetParser struct{}

func (p *SpreadsheetParser) Kind() format.Kind {
	return format.KindSpreadsheet
}

func (p *SpreadsheetParser) Parse(ctx context.Context, data []byte) ([]domain.RawRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: format.KindSpreadsheet, Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: format.KindSpreadsheet, Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: format.KindSpreadsheet, Err: fmt.Errorf("failed to read rows: %w", err)}
	}

	records, err := recordsFromRows(ctx, rows)
	if err != nil {
		return nil, &ParseError{Format: format.KindSpreadsheet, Err: err}
	}
	return records, nil
}
