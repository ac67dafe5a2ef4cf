// Package registry holds the catalogue of named mapping configurations.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/repository"
)

// Registry is a concurrency-safe catalogue of mapping configs. Lookups by
// unregistered name fall back to the config named "default", which is seeded
// at construction and can never be removed. Registration replaces a whole
// config atomically; readers never observe a partially written entry.
type Registry struct {
	mu       sync.RWMutex
	configs  map[string]domain.MappingConfig
	required []string

	store  repository.MappingStore
	logger *zap.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithStore adds write-through persistence for registrations.
func WithStore(store repository.MappingStore) Option {
	return func(r *Registry) { r.store = store }
}

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New builds a registry seeded with the default config. requiredFields is
// the validation rule set applied to every registration: a required target
// field may not have an empty alias list.
func New(defaultConfig domain.MappingConfig, requiredFields []string, opts ...Option) (*Registry, error) {
	r := &Registry{
		configs:  make(map[string]domain.MappingConfig),
		required: append([]string(nil), requiredFields...),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	defaultConfig.Name = domain.DefaultMappingName
	if err := defaultConfig.Validate(r.required); err != nil {
		return nil, fmt.Errorf("default mapping config: %w", err)
	}
	r.configs[domain.DefaultMappingName] = defaultConfig.Clone()

	return r, nil
}

// Get returns the config registered under name, or the default config when
// the name is unknown. The returned config is a copy; callers may hold it
// across concurrent registrations.
func (r *Registry) Get(name string) domain.MappingConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if config, ok := r.configs[name]; ok {
		return config.Clone()
	}
	return r.configs[domain.DefaultMappingName].Clone()
}

// Register validates and stores a config under name, overwriting any
// existing entry. When a persistent store is configured the config is saved
// there first; a store failure leaves the in-memory catalogue unchanged.
func (r *Registry) Register(ctx context.Context, name string, config domain.MappingConfig) error {
	config.Name = name
	if err := config.Validate(r.required); err != nil {
		return err
	}

	if r.store != nil {
		if err := r.store.Save(ctx, config); err != nil {
			return fmt.Errorf("failed to persist mapping config %s: %w", name, err)
		}
	}

	cloned := config.Clone()
	r.mu.Lock()
	r.configs[name] = cloned
	r.mu.Unlock()

	r.logger.Info("mapping config registered",
		zap.String("name", name),
		zap.Int("targets", len(config.Targets)),
	)
	return nil
}

// List returns a snapshot of all registered configs keyed by name.
func (r *Registry) List() map[string]domain.MappingConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]domain.MappingConfig, len(r.configs))
	for name, config := range r.configs {
		snapshot[name] = config.Clone()
	}
	return snapshot
}

// LoadPersisted merges previously persisted configs into the catalogue.
// Configs that no longer pass validation are skipped rather than failing
// startup; the default config is never overwritten by a stale persisted
// copy unless it validates.
func (r *Registry) LoadPersisted(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	configs, err := r.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	for _, config := range configs {
		if err := config.Validate(r.required); err != nil {
			r.logger.Warn("skipping persisted mapping config",
				zap.String("name", config.Name),
				zap.Error(err),
			)
			continue
		}
		cloned := config.Clone()
		r.mu.Lock()
		r.configs[config.Name] = cloned
		r.mu.Unlock()
	}

	return nil
}
