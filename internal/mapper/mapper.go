// Package mapper translates source field names into the canonical schema
// defined by a mapping configuration.
package mapper

import (
	"strings"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

// MatchMode selects how a source field name is compared against an alias.
type MatchMode string

const (
	// MatchSubstring accepts a source key that equals an alias or contains
	// it as a substring, both lower-cased and trimmed. This tolerates vendor
	// variations (billing_address matches alias address) at the cost of
	// false positives on short aliases.
	MatchSubstring MatchMode = "substring"

	// MatchExact accepts only case-insensitive equality.
	MatchExact MatchMode = "exact"
)

// Mapper normalizes raw records against a mapping config.
type Mapper struct {
	mode MatchMode
}

// New returns a mapper with the given match mode. Unrecognized modes fall
// back to substring matching, the historical default.
func New(mode MatchMode) *Mapper {
	if mode != MatchExact {
		mode = MatchSubstring
	}
	return &Mapper{mode: mode}
}

// Mode returns the active match mode.
func (m *Mapper) Mode() MatchMode {
	return m.mode
}

// Normalize maps one raw record onto the config's target fields. It is a
// total function: every target field appears in the output, unmatched ones
// as explicit nulls. For each target, aliases are tried in declaration
// order, and within one alias the record's keys in file order; the first
// match wins. A single source key may satisfy several target fields.
func (m *Mapper) Normalize(record domain.RawRecord, config domain.MappingConfig) domain.NormalizedRecord {
	normalized := domain.NormalizedRecord{
		Fields: config.TargetNames(),
		Values: make(map[string]*string, len(config.Targets)),
	}

	for _, target := range config.Targets {
		normalized.Values[target.Name] = nil

		matched := false
		for _, alias := range target.Aliases {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				continue
			}
			for _, key := range record.Keys {
				if !m.matches(strings.ToLower(strings.TrimSpace(key)), alias) {
					continue
				}
				value, ok := record.Get(key)
				if !ok {
					// Null-padded cell; keep scanning for a real value.
					continue
				}
				v := value
				normalized.Values[target.Name] = &v
				matched = true
				break
			}
			if matched {
				break
			}
		}
	}

	return normalized
}

func (m *Mapper) matches(key, alias string) bool {
	if key == alias {
		return true
	}
	return m.mode == MatchSubstring && strings.Contains(key, alias)
}
