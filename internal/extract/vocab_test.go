package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVocabularyOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	yml := `
units: ["UN", "CX", "SACO"]
client_fragments: ["OBRAS DO SUL"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)

	// overridden lists
	assert.Equal(t, []string{"UN", "CX", "SACO"}, v.Units)
	assert.Equal(t, []string{"OBRAS DO SUL"}, v.ClientFragments)
	// untouched lists keep the defaults
	assert.Equal(t, DefaultVocabulary().LegalRates, v.LegalRates)
	assert.NotEmpty(t, v.Boilerplate)
	assert.NotEmpty(t, v.VATAliases)
}

func TestLoadVocabularyMissingFile(t *testing.T) {
	_, err := LoadVocabulary("/nonexistent/vocab.yaml")
	assert.Error(t, err)
}

func TestVocabularyDrivesStrategies(t *testing.T) {
	v := DefaultVocabulary()
	v.Units = []string{"UN", "CX"}
	e := NewExtractor(v)

	lines := []string{
		"123456789",
		"Caixa de parafusos zincados",
		"CX",
		"4,00",
		"2,00",
	}
	items := e.parseItems(lines)
	require.Len(t, items, 1)
	assert.Equal(t, "CX", items[0].Unit)
}
