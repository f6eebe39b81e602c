package ledger

import (
	"encoding/csv"
	"os"
	"regexp"
	"strings"

	"github.com/BailaoHugo/gestao-facturas/internal/common"
)

const centersFile = "centros_custo.csv"

// Cost-center codes come in two shapes: the current YY.NN / YY.NNN form
// (year.project, e.g. "25.113") and the legacy three-digit form ("001").
var (
	reCentroDotted    = regexp.MustCompile(`(\d{2}\.\d{2,3})\b`)
	reCentroBracketed = regexp.MustCompile(`\[(\d{3}|\d{2}\.\d{2,3})\]`)
	reCentroWellForm  = regexp.MustCompile(`^\d{2}\.\d{2,3}$`)
	reSubjectSplit    = regexp.MustCompile(`[\s\-–—]+`)
	reThreeDigits     = regexp.MustCompile(`^\d{3}$`)
)

// ParseCostCenter extracts a cost-center code from an email subject such
// as "25.113 - CCG" or "[001] Obra Estoril". When valid is non-empty
// only codes in the set are accepted; with an empty set any well-formed
// code passes. Returns "" when no acceptable code is found.
func ParseCostCenter(subject string, valid map[string]struct{}) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return ""
	}
	acceptAny := len(valid) == 0

	accept := func(code string) bool {
		if _, ok := valid[code]; ok {
			return true
		}
		if acceptAny {
			return reCentroWellForm.MatchString(code) || reThreeDigits.MatchString(code)
		}
		return false
	}

	if m := reCentroDotted.FindStringSubmatch(subject); m != nil && accept(m[1]) {
		return m[1]
	}
	if m := reCentroBracketed.FindStringSubmatch(subject); m != nil && accept(m[1]) {
		return m[1]
	}
	for _, tok := range reSubjectSplit.Split(subject, -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if reCentroWellForm.MatchString(tok) && accept(tok) {
			return tok
		}
		if len(tok) >= 3 && isDigits(tok[:3]) && accept(tok[:3]) {
			return tok[:3]
		}
		if accept(tok) {
			return tok
		}
	}
	return ""
}

// LoadValidCenters reads the registered cost centers from
// centros_custo.csv in configDir (column centro_custo_codigo). A
// missing file yields an empty set, which makes ParseCostCenter accept
// any well-formed code.
func LoadValidCenters(configDir string) (map[string]struct{}, error) {
	f, err := os.Open(configDir + "/" + centersFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.WrapError(err, "open cost centers table")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, common.NewAppError("LEDGER_CONFIG", "malformed "+centersFile, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	idx := -1
	for i, h := range records[0] {
		if strings.TrimSpace(strings.ToLower(h)) == "centro_custo_codigo" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, common.NewAppError("LEDGER_CONFIG", centersFile+" missing centro_custo_codigo column", nil)
	}

	out := map[string]struct{}{}
	for _, rec := range records[1:] {
		if idx >= len(rec) {
			continue
		}
		if code := strings.TrimSpace(rec[idx]); code != "" {
			out[code] = struct{}{}
		}
	}
	return out, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
