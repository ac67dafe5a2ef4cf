package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/format"
)

// JSONParser accepts a single object (treated as a one-record file) or an
// array of objects. Any other root shape is a structural error. Object key
// order is preserved by walking decoder tokens instead of unmarshalling
// into a map.
type JSONParser struct{}

func (p *JSONParser) Kind() format.Kind {
	return format.KindJSON
}

func (p *JSONParser) Parse(ctx context.Context, data []byte) ([]domain.RawRecord, error) {
	records, err := decodeJSONRecords(ctx, data)
	if err != nil {
		return nil, &ParseError{Format: format.KindJSON, Err: err}
	}
	return records, nil
}

func decodeJSONRecords(ctx context.Context, data []byte) ([]domain.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, errors.New("document root must be an object or an array of objects")
	}

	switch delim {
	case '{':
		record, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		return []domain.RawRecord{record}, nil
	case '[':
		var records []domain.RawRecord
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			elemTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("invalid json: %w", err)
			}
			if elemDelim, ok := elemTok.(json.Delim); !ok || elemDelim != '{' {
				return nil, errors.New("array elements must be objects")
			}
			record, err := decodeObject(dec)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return records, nil
	default:
		return nil, errors.New("document root must be an object or an array of objects")
	}
}

// decodeObject consumes an object's members after its opening brace and
// returns them as a record. JSON null leaves the key without a value so the
// field maps to an explicit null downstream.
func decodeObject(dec *json.Decoder) (domain.RawRecord, error) {
	var keys []string
	values := make(map[string]string)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return domain.RawRecord{}, fmt.Errorf("invalid json: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return domain.RawRecord{}, errors.New("invalid json: object key is not a string")
		}

		value, err := decodeValue(dec)
		if err != nil {
			return domain.RawRecord{}, err
		}

		if _, dup := values[key]; dup {
			continue
		}
		keys = append(keys, key)
		if value != nil {
			values[key] = *value
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return domain.RawRecord{}, fmt.Errorf("invalid json: %w", err)
	}

	return domain.RawRecord{Keys: keys, Values: values}, nil
}

func decodeValue(dec *json.Decoder) (*string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	switch v := tok.(type) {
	case string:
		return &v, nil
	case json.Number:
		s := v.String()
		return &s, nil
	case bool:
		s := strconv.FormatBool(v)
		return &s, nil
	case nil:
		return nil, nil
	case json.Delim:
		// Nested structures are kept as their compact JSON text.
		nested, err := consumeNested(dec, v)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(nested)
		if err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		s := string(encoded)
		return &s, nil
	default:
		return nil, fmt.Errorf("invalid json: unexpected token %v", tok)
	}
}

func consumeNested(dec *json.Decoder, open json.Delim) (any, error) {
	switch open {
	case '{':
		obj := make(map[string]any)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("invalid json: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, errors.New("invalid json: object key is not a string")
			}
			value, err := consumeValue(dec)
			if err != nil {
				return nil, err
			}
			obj[key] = value
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := consumeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("invalid json: unexpected delimiter %v", open)
	}
}

func consumeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if delim, ok := tok.(json.Delim); ok {
		return consumeNested(dec, delim)
	}
	return tok, nil
}
