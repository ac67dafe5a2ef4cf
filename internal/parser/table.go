package parser

import (
	"context"
	"errors"
	"strings"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

// recordsFromRows converts a header row plus data rows into raw records.
// Data rows shorter than the header contribute no value for the missing
// trailing fields, which leaves those fields null after mapping. Cells
// beyond the header width are dropped.
func recordsFromRows(ctx context.Context, rows [][]string) ([]domain.RawRecord, error) {
	if len(rows) == 0 {
		return nil, errors.New("file has no header row")
	}

	headers := headerNames(rows[0])
	if len(headers) == 0 {
		return nil, errors.New("header row is empty")
	}

	keys := keptHeaders(headers)
	records := make([]domain.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				values[header] = row[i]
			}
		}
		records = append(records, domain.RawRecord{Keys: keys, Values: values})
	}

	return records, nil
}

// headerNames trims whitespace and blanks out duplicate column names so a
// later duplicate cannot silently overwrite an earlier column's value.
func headerNames(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, value := range raw {
		name := strings.TrimSpace(value)
		if _, dup := seen[name]; dup {
			headers[i] = ""
			continue
		}
		if name != "" {
			seen[name] = struct{}{}
		}
		headers[i] = name
	}
	return headers
}

func keptHeaders(headers []string) []string {
	kept := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != "" {
			kept = append(kept, h)
		}
	}
	return kept
}
