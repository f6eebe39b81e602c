// Package ledger turns extracted invoices into cost-ledger rows: it
// classifies each line into a cost type, resolves the cost center from
// an email subject and builds the rows persisted in custos_registo.
package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/BailaoHugo/gestao-facturas/constants"
	"github.com/BailaoHugo/gestao-facturas/internal/common"
)

const (
	suppliersFile = "classificacao_fornecedores.csv"
	keywordsFile  = "classificacao_keywords.csv"
)

type rule struct {
	key  string
	tipo constants.TipoLinha
}

// Classifier assigns a tipo_linha to invoice lines. Supplier rules win
// over keyword rules; anything unmatched is materiais.
type Classifier struct {
	suppliers []rule
	keywords  []rule
}

// NewClassifier builds a classifier from explicit rule pairs, mostly
// useful in tests. Keys are matched case-insensitively by containment.
func NewClassifier(suppliers, keywords map[string]constants.TipoLinha) *Classifier {
	c := &Classifier{}
	for k, t := range suppliers {
		c.suppliers = append(c.suppliers, rule{key: strings.ToLower(k), tipo: t})
	}
	for k, t := range keywords {
		c.keywords = append(c.keywords, rule{key: strings.ToLower(k), tipo: t})
	}
	return c
}

// LoadClassifier reads classificacao_fornecedores.csv and
// classificacao_keywords.csv from configDir. Missing files are not an
// error; the classifier then only applies the materiais default.
func LoadClassifier(configDir string) (*Classifier, error) {
	c := &Classifier{}
	var err error
	c.suppliers, err = loadRules(filepath.Join(configDir, suppliersFile), "fornecedor")
	if err != nil {
		return nil, err
	}
	c.keywords, err = loadRules(filepath.Join(configDir, keywordsFile), "keyword")
	if err != nil {
		return nil, err
	}
	return c, nil
}

func loadRules(path, keyColumn string) ([]rule, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.WrapError(err, "open classification table")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, common.NewAppError("LEDGER_CONFIG", "malformed classification table "+filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	keyIdx, tipoIdx := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case keyColumn:
			keyIdx = i
		case "tipo":
			tipoIdx = i
		}
	}
	if keyIdx < 0 || tipoIdx < 0 {
		return nil, common.NewAppError("LEDGER_CONFIG", "classification table "+filepath.Base(path)+" missing "+keyColumn+"/tipo columns", nil)
	}

	var rules []rule
	for _, rec := range records[1:] {
		if keyIdx >= len(rec) || tipoIdx >= len(rec) {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(rec[keyIdx]))
		t := constants.TipoLinha(strings.ToLower(strings.TrimSpace(rec[tipoIdx])))
		if k == "" || !constants.IsTipoCusto(t) {
			continue
		}
		rules = append(rules, rule{key: k, tipo: t})
	}
	return rules, nil
}

// Classify returns the tipo_linha for a line, trying supplier rules
// first, then description keywords, then the materiais default.
func (c *Classifier) Classify(supplier, description string) constants.TipoLinha {
	sup := strings.ToLower(strings.TrimSpace(supplier))
	desc := strings.ToLower(strings.TrimSpace(description))
	for _, r := range c.suppliers {
		if strings.Contains(sup, r.key) {
			return r.tipo
		}
	}
	for _, r := range c.keywords {
		if strings.Contains(desc, r.key) {
			return r.tipo
		}
	}
	return constants.TipoMateriais
}
