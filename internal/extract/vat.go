package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var reVATNumber = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%?`)

// ParseVATRate converts free text ("23%", "IVA 13%", "isento", "Taxa
// normal") into a percentage in [0,100]. Returns nil when the text holds
// neither a known alias nor a plausible number.
func (v *Vocabulary) ParseVATRate(s string) *float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	// 1. Alias table, first containment match wins.
	for _, a := range v.VATAliases {
		if strings.Contains(s, a.Alias) {
			pct := a.Pct
			return &pct
		}
	}

	// 2. First decimal number, comma or dot separator, optional %.
	if m := reVATNumber.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil && n >= 0 && n <= 100 {
			n = math.Round(n*100) / 100
			return &n
		}
	}

	return nil
}

// ParseVATRateStrict is ParseVATRate snapped to the legally valid rates;
// a parsed value further than 0.01 from every legal rate yields nil.
func (v *Vocabulary) ParseVATRateStrict(s string) *float64 {
	pct := v.ParseVATRate(s)
	if pct == nil {
		return nil
	}
	for _, r := range v.LegalRates {
		if math.Abs(*pct-r) < 0.01 {
			snapped := r
			return &snapped
		}
	}
	return nil
}
