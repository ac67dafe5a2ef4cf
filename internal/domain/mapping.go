package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMappingName is the config every lookup falls back to. A registry is
// not usable until a config with this name has been registered.
const DefaultMappingName = "default"

// ErrInvalidMappingConfig is returned when a mapping registration payload
// cannot be accepted.
var ErrInvalidMappingConfig = errors.New("invalid mapping config")

// TargetField pairs a canonical field name with the ordered list of source
// field aliases that may supply its value.
type TargetField struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// MappingConfig is a named set of canonical-field -> alias-list rules.
// Target order is significant: normalized records expose fields in this
// order, and alias order decides match precedence.
type MappingConfig struct {
	Name    string        `json:"name"`
	Targets []TargetField `json:"targets"`
}

// NewMappingConfig builds a config from an ordered target list.
func NewMappingConfig(name string, targets []TargetField) MappingConfig {
	return MappingConfig{Name: name, Targets: targets}.Clone()
}

// TargetNames returns the canonical field names in declaration order.
func (c MappingConfig) TargetNames() []string {
	names := make([]string, len(c.Targets))
	for i, target := range c.Targets {
		names[i] = target.Name
	}
	return names
}

// Clone returns a deep copy so registry readers never share alias slices
// with a concurrently replaced config.
func (c MappingConfig) Clone() MappingConfig {
	targets := make([]TargetField, len(c.Targets))
	for i, target := range c.Targets {
		targets[i] = TargetField{
			Name:    target.Name,
			Aliases: append([]string(nil), target.Aliases...),
		}
	}
	return MappingConfig{Name: c.Name, Targets: targets}
}

// Validate checks structural soundness at registration time. Required target
// fields must carry at least one alias; duplicate or blank target names are
// rejected. Validation failures wrap ErrInvalidMappingConfig.
func (c MappingConfig) Validate(requiredFields []string) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMappingConfig)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("%w: at least one target field is required", ErrInvalidMappingConfig)
	}

	seen := make(map[string]struct{}, len(c.Targets))
	byName := make(map[string][]string, len(c.Targets))
	for _, target := range c.Targets {
		name := strings.TrimSpace(target.Name)
		if name == "" {
			return fmt.Errorf("%w: target field with empty name", ErrInvalidMappingConfig)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate target field %q", ErrInvalidMappingConfig, name)
		}
		seen[name] = struct{}{}
		byName[name] = target.Aliases
	}

	for _, required := range requiredFields {
		aliases, ok := byName[required]
		if !ok {
			continue
		}
		if len(nonBlank(aliases)) == 0 {
			return fmt.Errorf("%w: required field %q has no aliases", ErrInvalidMappingConfig, required)
		}
	}

	return nil
}

func nonBlank(values []string) []string {
	var kept []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	return kept
}
