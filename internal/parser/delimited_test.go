package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelimitedTextParserPrefersTab(t *testing.T) {
	data := []byte("name\tcity\nAlice\tPortland\n")

	records, err := (&DelimitedTextParser{}).Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, []string{"name", "city"}, records[0].Keys)
	value, ok := records[0].Get("city")
	require.True(t, ok)
	assert.Equal(t, "Portland", value)
}

func TestDelimitedTextParserFallsBackToComma(t *testing.T) {
	data := []byte("name,city\nAlice,Portland\n")

	records, err := (&DelimitedTextParser{}).Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"name", "city"}, records[0].Keys)
}

func TestDelimitedTextParserDetectsDelimiterFromHeaderOnly(t *testing.T) {
	// Tab appears only in a data row; the header decides, so the file is
	// read as comma-separated.
	data := []byte("name,city\nAlice\tno,Portland\n")

	records, err := (&DelimitedTextParser{}).Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, records, 1)

	value, ok := records[0].Get("name")
	require.True(t, ok)
	assert.Equal(t, "Alice\tno", value)
}
