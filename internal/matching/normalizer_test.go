package matching

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := LoadTables(filepath.Join("../../config/facility_matching.json"))
	require.NoError(t, err)
	return tables
}

func TestLoadTables_FileNotFound(t *testing.T) {
	tables, err := LoadTables("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, tables)
}

func TestNormalizePlace_AccentAndCaseInsensitive(t *testing.T) {
	n := NewNormalizer(loadTestTables(t))

	assert.Equal(t, n.NormalizePlace("Hôpital Général"), n.NormalizePlace("HOPITAL GENERAL"))
	assert.Equal(t, n.NormalizePlace("Sacré-Cœur"), n.NormalizePlace("SACRE-Cœur"))
}

func TestNormalizePlace_Idempotent(t *testing.T) {
	n := NewNormalizer(loadTestTables(t))

	inputs := []string{
		"Hôpital Général de Montréal",
		"Centre Hospitalier de l'Université de Montréal",
		"CLSC des Faubourgs",
		"St. Mary's Hospital Center",
		"",
	}

	for _, input := range inputs {
		once := n.NormalizePlace(input)
		assert.Equal(t, once, n.NormalizePlace(once), "input: %q", input)
	}
}

func TestNormalizeFeed_Idempotent(t *testing.T) {
	n := NewNormalizer(loadTestTables(t))

	inputs := []string{
		"Centre hospitalier de l'Université de Montréal",
		"Hôpital général juif",
		"CHU Sainte-Justine",
	}

	for _, input := range inputs {
		once := n.NormalizeFeed(input)
		assert.Equal(t, once, n.NormalizeFeed(once), "input: %q", input)
	}
}

func TestNormalizeFeed_CollapsesInstitutionalLongForms(t *testing.T) {
	n := NewNormalizer(loadTestTables(t))

	assert.Equal(t, "CHUM", n.NormalizeFeed("Centre hospitalier de l'Université de Montréal"))
	assert.Equal(t, "JEWISH GENERAL", n.NormalizeFeed("Hôpital général juif"))
}

func TestNormalize_StripsArticlesAndFillers(t *testing.T) {
	n := NewNormalizer(loadTestTables(t))

	assert.Equal(t, "GENERAL MONTREAL", n.NormalizePlace("Hôpital Général de Montréal"))
	assert.Equal(t, "UNIVERSITE", n.NormalizePlace("de l'Université"))
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	n := NewNormalizer(loadTestTables(t))

	assert.Equal(t, "NOTRE-DAME", n.NormalizePlace("  Notre-Dame   "))
}

func TestNormalize_UnifiesApostropheVariants(t *testing.T) {
	n := NewNormalizer(loadTestTables(t))

	assert.Equal(t, n.NormalizePlace("St. Mary’s"), n.NormalizePlace("St. Mary's"))
}
