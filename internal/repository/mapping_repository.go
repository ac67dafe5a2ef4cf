package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

type mappingStore struct {
	pool *pgxpool.Pool
}

// NewMappingStore wires a MappingStore backed by pgxpool.
func NewMappingStore(pool *pgxpool.Pool) MappingStore {
	return &mappingStore{pool: pool}
}

func (r *mappingStore) Save(ctx context.Context, config domain.MappingConfig) error {
	if r.pool == nil {
		return fmt.Errorf("mapping store not initialized")
	}

	targets, err := json.Marshal(config.Targets)
	if err != nil {
		return fmt.Errorf("failed to encode mapping config: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO field_mappings (name, targets)
		 VALUES ($1, $2)
		 ON CONFLICT (name)
		 DO UPDATE SET targets = EXCLUDED.targets, updated_at = now()`,
		config.Name,
		targets,
	)
	if err != nil {
		return fmt.Errorf("failed to save mapping config: %w", err)
	}

	return nil
}

func (r *mappingStore) LoadAll(ctx context.Context) ([]domain.MappingConfig, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("mapping store not initialized")
	}

	rows, err := r.pool.Query(ctx, `SELECT name, targets FROM field_mappings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.MappingConfig
	for rows.Next() {
		var (
			name    string
			payload []byte
		)
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan mapping config: %w", err)
		}

		var targets []domain.TargetField
		if err := json.Unmarshal(payload, &targets); err != nil {
			return nil, fmt.Errorf("failed to decode mapping config %s: %w", name, err)
		}

		configs = append(configs, domain.MappingConfig{Name: name, Targets: targets})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mapping configs: %w", err)
	}

	return configs, nil
}
