package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingConfigValidate(t *testing.T) {
	required := []string{"auth_id"}

	valid := MappingConfig{
		Name: "vendor",
		Targets: []TargetField{
			{Name: "name", Aliases: nil}, // optional target may be alias-less
			{Name: "auth_id", Aliases: []string{"id"}},
		},
	}
	require.NoError(t, valid.Validate(required))

	cases := map[string]MappingConfig{
		"blank name": {
			Targets: []TargetField{{Name: "auth_id", Aliases: []string{"id"}}},
		},
		"no targets": {
			Name: "vendor",
		},
		"blank target name": {
			Name:    "vendor",
			Targets: []TargetField{{Name: "  ", Aliases: []string{"id"}}},
		},
		"duplicate target": {
			Name: "vendor",
			Targets: []TargetField{
				{Name: "auth_id", Aliases: []string{"id"}},
				{Name: "auth_id", Aliases: []string{"ref"}},
			},
		},
		"required target without aliases": {
			Name:    "vendor",
			Targets: []TargetField{{Name: "auth_id", Aliases: []string{"   "}}},
		},
	}

	for name, config := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, config.Validate(required), ErrInvalidMappingConfig)
		})
	}
}

func TestMappingConfigCloneIsIndependent(t *testing.T) {
	original := NewMappingConfig("vendor", []TargetField{
		{Name: "auth_id", Aliases: []string{"id"}},
	})

	clone := original.Clone()
	clone.Targets[0].Aliases[0] = "mutated"

	assert.Equal(t, "id", original.Targets[0].Aliases[0])
}
