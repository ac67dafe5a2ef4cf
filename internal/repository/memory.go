package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

// MemoryRecordStore is an in-memory RecordStore for tests and for running
// the server without a database.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[string]domain.NormalizedRecord
}

// NewMemoryRecordStore returns an empty in-memory store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]domain.NormalizedRecord)}
}

func (s *MemoryRecordStore) Upsert(ctx context.Context, records []domain.NormalizedRecord, keyField string) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

		s.records[key] = record
		result.Stored++
	}

	return result, nil
}

// Get returns the stored record for a key.
func (s *MemoryRecordStore) Get(key string) (domain.NormalizedRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	return record, ok
}

// Len returns the number of stored records.
func (s *MemoryRecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// MemoryMappingStore is an in-memory MappingStore.
type MemoryMappingStore struct {
	mu      sync.Mutex
	configs map[string]domain.MappingConfig
}

// NewMemoryMappingStore returns an empty in-memory mapping store.
func NewMemoryMappingStore() *MemoryMappingStore {
	return &MemoryMappingStore{configs: make(map[string]domain.MappingConfig)}
}

func (s *MemoryMappingStore) Save(_ context.Context, config domain.MappingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.Name] = config.Clone()
	return nil
}

func (s *MemoryMappingStore) LoadAll(_ context.Context) ([]domain.MappingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	configs := make([]domain.MappingConfig, 0, len(s.configs))
	for _, config := range s.configs {
		configs = append(configs, config.Clone())
	}
	return configs, nil
}
