package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldpipe/fieldpipe/internal/config"
	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/mapper"
	"github.com/fieldpipe/fieldpipe/internal/registry"
	"github.com/fieldpipe/fieldpipe/internal/repository"
)

// stubStore records upserts and fails the keys it is told to fail.
type stubStore struct {
	mu       sync.Mutex
	calls    int
	records  []domain.NormalizedRecord
	failKeys map[string]struct{}
}

func (s *stubStore) Upsert(ctx context.Context, records []domain.NormalizedRecord, keyField string) (repository.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return repository.UpsertResult{}, err
	}

	s.calls++
	var result repository.UpsertResult
	for i, record := range records {
		key := record.Value(keyField)
		if _, fail := s.failKeys[key]; fail {
			result.Errors = append(result.Errors, repository.RecordError{
				Index: i,
				Key:   key,
				Err:   fmt.Errorf("constraint violation"),
			})
			continue
		}
		s.records = append(s.records, record)
		result.Stored++
	}
	return result, nil
}

func newTestService(t *testing.T, store repository.RecordStore) (*Service, *registry.Registry) {
	t.Helper()

	settings := config.Default()
	rules, err := settings.Pipeline.CompileRules()
	require.NoError(t, err)

	reg, err := registry.New(settings.Pipeline.DefaultMapping(), settings.Pipeline.RequiredFields)
	require.NoError(t, err)

	service := NewService(
		reg,
		mapper.New(mapper.MatchSubstring),
		rules,
		store,
		settings.Pipeline.KeyField,
		zap.NewNop(),
	)
	return service, reg
}

func TestSubmitCSVHappyPath(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	data := "full_name,street_address,city,state,zipcode,auth_id\n" +
		"Alice Smith,1 Main St,Portland,OR,97201,A-100\n"

	result, err := service.Submit(context.Background(), Request{
		FileName: "customers.csv",
		Data:     []byte(data),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Valid)
	assert.Equal(t, 0, result.Invalid)
	assert.Equal(t, 1, result.Stored)

	require.Len(t, store.records, 1)
	stored := store.records[0]
	assert.Equal(t, "Alice Smith", stored.Value("name"))
	assert.Equal(t, "1 Main St", stored.Value("address1"))
	assert.Equal(t, "97201", stored.Value("zip"))
	assert.Equal(t, "A-100", stored.Value("auth_id"))

	// Every canonical field matched, so no target is null.
	for _, field := range stored.Fields {
		assert.True(t, stored.Has(field), "field %s should be non-null", field)
	}
}

func TestSubmitMissingRequiredFieldIsInvalid(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	// No column maps to auth_id.
	data := "full_name,city\nAlice,Portland\n"

	result, err := service.Submit(context.Background(), Request{
		FileName:       "partial.csv",
		Data:           []byte(data),
		IncludeDetails: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.Valid)
	assert.Equal(t, 1, result.Invalid)
	assert.Equal(t, 0, result.Stored)
	assert.Equal(t, 0, store.calls)

	require.Len(t, result.InvalidRecords, 1)
	require.Len(t, result.InvalidRecords[0].Violations, 1)
	assert.Contains(t, result.InvalidRecords[0].Violations[0], "auth_id")
}

func TestSubmitUnsupportedExtension(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	_, err := service.Submit(context.Background(), Request{
		FileName: "report.pdf",
		Data:     []byte("%PDF-1.4"),
	})
	require.Error(t, err)

	var pipelineErr *Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, KindUnsupportedFormat, pipelineErr.Kind)
	assert.Equal(t, 0, store.calls)
}

func TestSubmitEmptyFileReportsFormatFirst(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	cases := []struct {
		fileName string
		wantKind ErrorKind
	}{
		{"report.pdf", KindUnsupportedFormat},
		{"customers.csv", KindParseError},
	}
	for _, tc := range cases {
		_, err := service.Submit(context.Background(), Request{FileName: tc.fileName})
		require.Error(t, err, tc.fileName)

		var pipelineErr *Error
		require.ErrorAs(t, err, &pipelineErr, tc.fileName)
		assert.Equal(t, tc.wantKind, pipelineErr.Kind, tc.fileName)
	}
	assert.Equal(t, 0, store.calls)
}

func TestSubmitLegacyBinaryWorkbookIsParseError(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	data := make([]byte, 512)
	copy(data, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})

	_, err := service.Submit(context.Background(), Request{
		FileName: "customers.xls",
		Data:     data,
	})
	require.Error(t, err)

	var pipelineErr *Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, KindParseError, pipelineErr.Kind)
	assert.Equal(t, 0, store.calls)
}

func TestSubmitMalformedJSONFailsBeforeMapping(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	_, err := service.Submit(context.Background(), Request{
		FileName: "records.json",
		Data:     []byte(`{"name": "Alice",`),
	})
	require.Error(t, err)

	var pipelineErr *Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, KindParseError, pipelineErr.Kind)
	assert.Equal(t, 0, store.calls)
}

func TestSubmitPartialStoreFailure(t *testing.T) {
	store := &stubStore{failKeys: map[string]struct{}{"A-2": {}}}
	service, _ := newTestService(t, store)

	data := "full_name,auth_id\nAlice,A-1\nBob,A-2\nCarol,A-3\n"

	result, err := service.Submit(context.Background(), Request{
		FileName: "customers.csv",
		Data:     []byte(data),
	})
	require.NoError(t, err, "partial store failure must not fail the run")

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Valid)
	assert.Equal(t, 2, result.Stored)

	require.Len(t, result.StoreFailures, 1)
	assert.Equal(t, "A-2", result.StoreFailures[0].Key)
	assert.Equal(t, 2, result.StoreFailures[0].RowNumber)
}

func TestSubmitCountsAlwaysReconcile(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	data := "full_name,auth_id,zipcode\n" +
		"Alice,A-1,97201\n" +
		"Bob,,97202\n" +
		"Carol,A-3,bad-zip\n" +
		",A-4,97204\n"

	result, err := service.Submit(context.Background(), Request{
		FileName: "mixed.csv",
		Data:     []byte(data),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, result.Total, result.Valid+result.Invalid)
	assert.Equal(t, 3, result.Invalid)
	assert.LessOrEqual(t, result.Stored, result.Valid)
	assert.Equal(t, result.Valid, result.Stored, "no store errors means stored == valid")
}

func TestSubmitInvalidRecordsKeepInputOrder(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	data := "full_name,auth_id\n,A-1\nBob,A-2\n,A-3\n"

	result, err := service.Submit(context.Background(), Request{
		FileName:       "gaps.csv",
		Data:           []byte(data),
		IncludeDetails: true,
	})
	require.NoError(t, err)

	require.Len(t, result.InvalidRecords, 2)
	assert.Equal(t, 1, result.InvalidRecords[0].RowNumber)
	assert.Equal(t, 3, result.InvalidRecords[1].RowNumber)
}

func TestSubmitCancelledContext(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Submit(ctx, Request{
		FileName: "customers.csv",
		Data:     []byte("full_name,auth_id\nAlice,A-1\n"),
	})
	require.Error(t, err)

	var pipelineErr *Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, KindCancelled, pipelineErr.Kind)
}

func TestSubmitUnknownMappingSourceFallsBackToDefault(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	result, err := service.Submit(context.Background(), Request{
		FileName:      "customers.csv",
		MappingSource: "never-registered",
		Data:          []byte("full_name,auth_id\nAlice,A-1\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
}

func TestSubmitUsesRegisteredVendorMapping(t *testing.T) {
	store := &stubStore{}
	service, reg := newTestService(t, store)

	vendor := domain.MappingConfig{
		Targets: []domain.TargetField{
			{Name: "name", Aliases: []string{"customer"}},
			{Name: "auth_id", Aliases: []string{"customer_ref"}},
		},
	}
	require.NoError(t, reg.Register(context.Background(), "vendor1", vendor))

	result, err := service.Submit(context.Background(), Request{
		FileName:      "vendor.csv",
		MappingSource: "vendor1",
		Data:          []byte("customer,customer_ref\nAlice,V-9\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stored)
	require.Len(t, store.records, 1)
	assert.Equal(t, "V-9", store.records[0].Value("auth_id"))
}

func TestSubmitJSONArray(t *testing.T) {
	store := &stubStore{}
	service, _ := newTestService(t, store)

	result, err := service.Submit(context.Background(), Request{
		FileName: "records.json",
		Data:     []byte(`[{"full_name": "Alice", "auth_id": "A-1"}, {"full_name": "Bob", "auth_id": "A-2"}]`),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stored)
}

func TestRegisterMappingRejectsInvalidConfig(t *testing.T) {
	service, _ := newTestService(t, &stubStore{})

	bad := domain.MappingConfig{
		Targets: []domain.TargetField{
			{Name: "name", Aliases: []string{"customer"}},
			{Name: "auth_id", Aliases: nil},
		},
	}

	err := service.RegisterMapping(context.Background(), "vendor1", bad)
	require.Error(t, err)

	var pipelineErr *Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, KindInvalidMappingConfig, pipelineErr.Kind)
}

func TestListMappingsIncludesDefault(t *testing.T) {
	service, _ := newTestService(t, &stubStore{})

	mappings := service.ListMappings()
	require.Contains(t, mappings, domain.DefaultMappingName)
}

func TestSubmitStoresRecordsInMemoryStore(t *testing.T) {
	store := repository.NewMemoryRecordStore()
	service, _ := newTestService(t, store)

	result, err := service.Submit(context.Background(), Request{
		FileName: "customers.csv",
		Data:     []byte("full_name,auth_id\nAlice,A-1\nAlice Again,A-1\n"),
	})
	require.NoError(t, err)

	// Upsert semantics: the second row overwrites the first.
	assert.Equal(t, 2, result.Stored)
	assert.Equal(t, 1, store.Len())

	record, ok := store.Get("A-1")
	require.True(t, ok)
	assert.Equal(t, "Alice Again", record.Value("name"))
}
