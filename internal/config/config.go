package config

import (
	"fmt"
	"regexp"

	"github.com/fieldpipe/fieldpipe/internal/db"
	"github.com/fieldpipe/fieldpipe/internal/domain"
	"github.com/fieldpipe/fieldpipe/internal/validator"
)

// Settings is the full deployment configuration.
type Settings struct {
	Server   Server
	Database db.Config
	Pipeline Pipeline
}

// Server holds HTTP server settings.
type Server struct {
	Addr           string
	AllowedOrigins []string
}

// Rule is the on-disk form of one per-field validation rule.
type Rule struct {
	Pattern   string `mapstructure:"pattern"`
	MaxLength int    `mapstructure:"max_length"`
	Message   string `mapstructure:"message"`
}

// Pipeline holds the pipeline's behavior configuration: match strictness,
// upsert key, validation rules and the named mapping configs seeded at
// startup.
type Pipeline struct {
	MatchMode      string                          `mapstructure:"match_mode"`
	KeyField       string                          `mapstructure:"key_field"`
	RequiredFields []string                        `mapstructure:"required_fields"`
	Rules          map[string]Rule                 `mapstructure:"rules"`
	Mappings       map[string][]domain.TargetField `mapstructure:"mappings"`
	StorageDriver  string                          `mapstructure:"storage_driver"`
}

// CompileRules turns the on-disk rule set into compiled validator rules.
// Pattern compilation happens here, once, so validation never parses
// regular expressions per record.
func (p Pipeline) CompileRules() (validator.Rules, error) {
	rules := validator.Rules{
		Required: append([]string(nil), p.RequiredFields...),
		Fields:   make(map[string]validator.FieldRule, len(p.Rules)),
	}

	for field, rule := range p.Rules {
		compiled := validator.FieldRule{
			MaxLength: rule.MaxLength,
			Message:   rule.Message,
		}
		if rule.Pattern != "" {
			pattern, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return validator.Rules{}, fmt.Errorf("invalid pattern for field %s: %w", field, err)
			}
			compiled.Pattern = pattern
		}
		rules.Fields[field] = compiled
	}

	return rules, nil
}

// DefaultMapping returns the mapping config to seed the registry with.
func (p Pipeline) DefaultMapping() domain.MappingConfig {
	if targets, ok := p.Mappings[domain.DefaultMappingName]; ok {
		return domain.NewMappingConfig(domain.DefaultMappingName, targets)
	}
	return domain.NewMappingConfig(domain.DefaultMappingName, defaultTargets())
}

// Default returns the shipped configuration: substring matching, upsert by
// auth_id, the stock alias table and the zip/state format rules.
func Default() Settings {
	return Settings{
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
		Pipeline: Pipeline{
			MatchMode:      "substring",
			KeyField:       "auth_id",
			RequiredFields: []string{"name", "auth_id"},
			Rules: map[string]Rule{
				"zip": {
					Pattern: `^\d{5}(-\d{4})?$`,
					Message: "ZIP code must be 5 digits or 5+4 format",
				},
				"state": {
					MaxLength: 2,
					Message:   "State should be a 2-letter code",
				},
			},
			Mappings: map[string][]domain.TargetField{
				domain.DefaultMappingName: defaultTargets(),
			},
			StorageDriver: "postgres",
		},
	}
}

// mappingEntry is the on-disk form of one target field: the canonical name
// plus its ordered alias list. A list of entries keeps target order, which a
// yaml map would lose.
type mappingEntry struct {
	Field   string   `mapstructure:"field"`
	Aliases []string `mapstructure:"aliases"`
}

func targetsFromEntries(entries []mappingEntry) []domain.TargetField {
	targets := make([]domain.TargetField, len(entries))
	for i, entry := range entries {
		targets[i] = domain.TargetField{Name: entry.Field, Aliases: entry.Aliases}
	}
	return targets
}

func defaultTargets() []domain.TargetField {
	return []domain.TargetField{
		{Name: "name", Aliases: []string{"name", "full_name", "customer_name", "client_name"}},
		{Name: "address1", Aliases: []string{"address", "address1", "street_address", "street"}},
		{Name: "city", Aliases: []string{"city", "town"}},
		{Name: "state", Aliases: []string{"state", "province", "region"}},
		{Name: "zip", Aliases: []string{"zip", "zipcode", "postal_code", "postalcode", "zip_code"}},
		{Name: "auth_id", Aliases: []string{"auth_id", "authid", "authorization_id", "auth", "id"}},
	}
}
