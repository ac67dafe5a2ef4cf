package repository

import (
	"context"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

// RecordError reports one record the store could not persist. Index is the
// record's position in the submitted batch.
type RecordError struct {
	Index int
	Key   string
	Err   error
}

// UpsertResult summarizes a batch upsert. Stored plus len(Errors) equals the
// number of submitted records.
type UpsertResult struct {
	Stored int
	Errors []RecordError
}

// RecordStore persists normalized records with idempotent upsert-by-key
// semantics. A failure for one record must not abort the rest of the batch;
// only batch-level failures (connection loss, cancellation) return an error.
type RecordStore interface {
	Upsert(ctx context.Context, records []domain.NormalizedRecord, keyField string) (UpsertResult, error)
}

// MappingStore durably persists named mapping configurations. Save overwrites
// an existing config of the same name.
type MappingStore interface {
	Save(ctx context.Context, config domain.MappingConfig) error
	LoadAll(ctx context.Context) ([]domain.MappingConfig, error)
}
