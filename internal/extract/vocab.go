package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VATAlias maps a textual rate marker to its percentage. Matching is by
// case-insensitive containment, in declaration order, so more specific
// aliases must come before their abbreviations.
type VATAlias struct {
	Alias string  `yaml:"alias"`
	Pct   float64 `yaml:"pct"`
}

// Vocabulary holds the fixed word lists the heuristics match against.
// The defaults cover the Portuguese invoice conventions this engine
// targets; individual lists can be overridden from a YAML file so rules
// can be tuned without touching parsing logic.
type Vocabulary struct {
	// Units of measure recognized in line items.
	Units []string `yaml:"units"`
	// Boilerplate markers: a line containing any of these (uppercased)
	// is never a line-item description.
	Boilerplate []string `yaml:"boilerplate"`
	// VATAliases resolve textual rate markers ("isento", "normal", ...).
	VATAliases []VATAlias `yaml:"vat_aliases"`
	// ClientFragments are known client-name substrings used as a last
	// fallback when no labelled client line is found.
	ClientFragments []string `yaml:"client_fragments"`
	// LegalRates are the VAT percentages valid in Portugal.
	LegalRates []float64 `yaml:"legal_rates"`
}

// DefaultVocabulary returns the built-in rule vocabulary.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Units: []string{"UN", "UND", "LA", "KG", "M"},
		Boilerplate: []string{
			"DESIGNAÇÃO", "CÓDIGO", "P.P.", "TOTAL", "OBSERVAÇÕES",
			"ORIGINAL", "CÓPIA", "FORMULÁRIO", "CAPITAL SOCIAL",
			"REG. CONSERV", "SOFTWARE", "PAGAMENTO", "IBAN", "ATCUD",
			"RECEBIDO", "LÍQUIDO", "V.DESC", "% DESC", "ELABORADO POR",
		},
		VATAliases: []VATAlias{
			{Alias: "isento", Pct: 0},
			{Alias: "isentos", Pct: 0},
			{Alias: "ise", Pct: 0},
			{Alias: "0%", Pct: 0},
			{Alias: "normal", Pct: 23},
			{Alias: "nor", Pct: 23},
			{Alias: "reduzida", Pct: 6},
			{Alias: "red", Pct: 6},
			{Alias: "intermedia", Pct: 13},
			{Alias: "intermédia", Pct: 13},
			{Alias: "int", Pct: 13},
			{Alias: "autoliquidacao", Pct: 0},
			{Alias: "autoliquidação", Pct: 0},
		},
		ClientFragments: []string{"SOLID PROJECTS", "CHURRASQUEIRA"},
		LegalRates:      []float64{0, 6, 13, 23},
	}
}

// LoadVocabulary reads a YAML override file. Lists not present in the file
// keep their defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	v := DefaultVocabulary()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	return v, nil
}
