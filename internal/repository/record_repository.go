package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

type recordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore wires a RecordStore backed by pgxpool. Records land in the
// parsed_records table with their canonical fields as a JSONB document,
// keyed by the configured unique field.
func NewRecordStore(pool *pgxpool.Pool) RecordStore {
	return &recordStore{pool: pool}
}

func (r *recordStore) Upsert(ctx context.Context, records []domain.NormalizedRecord, keyField string) (UpsertResult, error) {
	if r.pool == nil {
		return UpsertResult{}, fmt.Errorf("record store not initialized")
	}

	var result UpsertResult
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := record.Value(keyField)
		if key == "" {
			result.Errors = append(result.Errors, RecordError{
				Index: i,
				Err:   fmt.Errorf("record has no value for unique key field %q", keyField),
			})
			continue
		}

		fields, err := json.Marshal(record.Values)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{
				Index: i,
				Key:   key,
				Err:   fmt.Errorf("failed to encode record: %w", err),
			})
			continue
		}

		// Each record is its own statement so a constraint violation on one
		// row cannot roll back the rest of the batch.
		_, err = r.pool.Exec(
			ctx,
			`INSERT INTO parsed_records (id, record_key, fields)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (record_key)
			 DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()`,
			uuid.New(),
			key,
			fields,
		)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Errors = append(result.Errors, RecordError{Index: i, Key: key, Err: err})
			continue
		}

		result.Stored++
	}

	return result, nil
}
