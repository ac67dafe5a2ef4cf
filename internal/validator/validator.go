// Package validator classifies normalized records against configurable
// required-field and per-field format rules.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fieldpipe/fieldpipe/internal/domain"
)

// FieldRule constrains the value of one canonical field. Zero-value members
// are inactive; rules only apply to fields that carry a non-null value.
type FieldRule struct {
	Pattern   *regexp.Regexp
	MaxLength int
	Message   string
}

// Rules is the validation configuration for one deployment: the set of
// fields every record must carry, plus per-field format rules. Rules are
// compiled once at configuration load; Validate never parses patterns.
type Rules struct {
	Required []string
	Fields   map[string]FieldRule
}

// Validate classifies a record as valid or invalid. A record is valid iff
// every required field is non-null and non-empty, and every configured rule
// passes for the fields that have values. Validate never fails; malformed
// configuration is rejected earlier, at load time.
func Validate(record domain.NormalizedRecord, rules Rules) domain.ValidationOutcome {
	var violations []string

	for _, field := range rules.Required {
		if strings.TrimSpace(record.Value(field)) == "" {
			violations = append(violations, fmt.Sprintf("required field %s is missing", field))
		}
	}

	for _, field := range record.Fields {
		rule, ok := rules.Fields[field]
		if !ok || !record.Has(field) {
			continue
		}

		value := record.Value(field)
		if value == "" {
			continue
		}

		if rule.MaxLength > 0 && len(value) > rule.MaxLength {
			violations = append(violations, ruleViolation(field, rule, fmt.Sprintf("longer than %d characters", rule.MaxLength)))
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			violations = append(violations, ruleViolation(field, rule, fmt.Sprintf("does not match pattern %s", rule.Pattern.String())))
		}
	}

	return domain.ValidationOutcome{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}

func ruleViolation(field string, rule FieldRule, fallback string) string {
	if rule.Message != "" {
		return fmt.Sprintf("%s: %s", field, rule.Message)
	}
	return fmt.Sprintf("%s: %s", field, fallback)
}
