// Package pipeline sequences the file processing stages: detect, parse,
// map, validate, store, summarize.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/format"
	"github.com/fieldpipe/fieldpipe/internal/mapper"
	"github.com/fieldpipe/fieldpipe/internal/parser"
	"github.com/fieldpipe/fieldpipe/internal/registry"
	"github.com/fieldpipe/fieldpipe/internal/repository"
	"github.com/fieldpipe/fieldpipe/internal/validator"
)

// maxReportedStoreFailures caps the per-record store failure detail returned
// to callers; the counts always cover the full batch.
const maxReportedStoreFailures = 5

// Service runs one bounded file through the pipeline per Submit call.
// A detect or parse failure aborts the run; validation and storage failures
// for individual records never do.
type Service struct {
	registry *registry.Registry
	mapper   *mapper.Mapper
	rules    validator.Rules
	store    repository.RecordStore
	keyField string
	logger   *zap.Logger
}

// NewService wires the pipeline. keyField names the canonical field used for
// upsert identity.
func NewService(
	reg *registry.Registry,
	m *mapper.Mapper,
	rules validator.Rules,
	store repository.RecordStore,
	keyField string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: reg,
		mapper:   m,
		rules:    rules,
		store:    store,
		keyField: keyField,
		logger:   logger,
	}
}

// Request describes one submitted file.
type Request struct {
	FileName       string
	MappingSource  string
	Data           []byte
	IncludeDetails bool
}

// Submit processes one file and returns an order-insensitive summary. On a
// terminal failure the returned error is a *Error carrying the kind; no
// summary accompanies it.
func (s *Service) Submit(ctx context.Context, req Request) (domain.PipelineResult, error) {
	var result domain.PipelineResult

	if strings.TrimSpace(req.FileName) == "" {
		return result, newError(KindUnsupportedFormat, errors.New("file name is required"))
	}

	kind := format.Detect(req.FileName)
	if kind == format.KindUnknown {
		s.logger.Warn("rejected upload with unsupported format", zap.String("file", req.FileName))
		return result, classify(format.ErrUnsupportedFormat)
	}

	// Detection precedes every content check, so an empty file in an
	// unsupported format reports the format problem, not the empty body.
	if len(req.Data) == 0 {
		return result, newError(KindParseError, errors.New("file is empty"))
	}

	p, err := parser.ForKind(kind)
	if err != nil {
		return result, classify(err)
	}

	rawRecords, err := p.Parse(ctx, req.Data)
	if err != nil {
		s.logger.Warn("parse failed",
			zap.String("file", req.FileName),
			zap.String("format", string(kind)),
			zap.Error(err),
		)
		return result, classify(err)
	}

	source := req.MappingSource
	if source == "" {
		source = domain.DefaultMappingName
	}
	config := s.registry.Get(source)

	var valid []domain.NormalizedRecord
	var validRows []int
	for i, raw := range rawRecords {
		if err := ctx.Err(); err != nil {
			return domain.PipelineResult{}, classify(err)
		}

		normalized := s.mapper.Normalize(raw, config)
		outcome := validator.Validate(normalized, s.rules)

		result.Total++
		if outcome.Valid {
			result.Valid++
			valid = append(valid, normalized)
			validRows = append(validRows, i+1)
			continue
		}

		result.Invalid++
		if req.IncludeDetails {
			result.InvalidRecords = append(result.InvalidRecords, domain.InvalidRecord{
				Record:     normalized,
				RowNumber:  i + 1,
				Violations: outcome.Violations,
			})
		}
	}

	if len(valid) > 0 {
		upsert, err := s.store.Upsert(ctx, valid, s.keyField)
		if err != nil {
			if classified := classify(err); classified.Kind == KindCancelled {
				return domain.PipelineResult{}, classified
			}
			s.logger.Error("store batch failed", zap.String("file", req.FileName), zap.Error(err))
			return domain.PipelineResult{}, newError(KindStoreError, err)
		}

		result.Stored = upsert.Stored
		for i, failure := range upsert.Errors {
			s.logger.Warn("record not stored",
				zap.String("file", req.FileName),
				zap.String("key", failure.Key),
				zap.Error(failure.Err),
			)
			if i >= maxReportedStoreFailures {
				continue
			}
			row := 0
			if failure.Index >= 0 && failure.Index < len(validRows) {
				row = validRows[failure.Index]
			}
			result.StoreFailures = append(result.StoreFailures, domain.StoreFailure{
				RowNumber: row,
				Key:       failure.Key,
				Message:   failure.Err.Error(),
			})
		}
	}

	s.logger.Info("pipeline run complete",
		zap.String("file", req.FileName),
		zap.String("format", string(kind)),
		zap.String("mapping", config.Name),
		zap.Int("total", result.Total),
		zap.Int("valid", result.Valid),
		zap.Int("invalid", result.Invalid),
		zap.Int("stored", result.Stored),
	)

	return result, nil
}

// RegisterMapping validates and registers a named mapping config.
func (s *Service) RegisterMapping(ctx context.Context, name string, config domain.MappingConfig) error {
	if err := s.registry.Register(ctx, name, config); err != nil {
		return classify(err)
	}
	return nil
}

// ListMappings returns all registered mapping configs keyed by name.
func (s *Service) ListMappings() map[string]domain.MappingConfig {
	return s.registry.List()
}
