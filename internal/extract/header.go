package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

const (
	maxNameLen   = 200
	maxNumberLen = 80
	maxDescLen   = 150
)

var (
	reSupplierNIF   = regexp.MustCompile(`(?i)N[ºo°]\s*Contribuinte\s*[:\s]*(\d{9})`)
	reSiteLabel     = regexp.MustCompile(`(?i)(SEDE|LOJA):\s*$`)
	reLeadingDigit  = regexp.MustCompile(`^\d`)
	reCompanyToken  = regexp.MustCompile(`LDA|LDA\.|UNIPESSOAL|SA\b`)
	reTaxCodeLine   = regexp.MustCompile(`^IVA-|^\d{9}`)
	reClientVAT     = regexp.MustCompile(`(?i)IVA-?PT-?(\d{9})`)
	reDocLabel      = regexp.MustCompile(`(?i)(?:Fatura|Factura|Recibo)[^\d]*N[ºo°]?\s*[\s:]*(.+?)(?:\s+(\d{2}[-/]\d{2}[-/]\d{2,4}))?$`)
	reDocSeries     = regexp.MustCompile(`(?i)(VDI\s*\d+[/\-]\d+)`)
	reDateToken     = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})`)
	reAmount        = regexp.MustCompile(`(\d+[,.]\d{2})`)
	reGrossAmount   = regexp.MustCompile(`(\d+[,.]\d{2})\s*(?:EUR|€)?`)
	reTotalGross    = regexp.MustCompile(`(?i)total\s+documento`)
	reTotalNet      = regexp.MustCompile(`(?i)total\s+l[ií]quido|totais|valor\s+il[ií]quido`)
	reTotalVAT      = regexp.MustCompile(`(?i)total\s+de\s+IVA|total\s+IVA|valor\s+IVA`)
)

// fieldRule is one step of a per-field extraction cascade: it inspects the
// full line list and yields a value or "".
type fieldRule func(lines []string) string

// firstMatch evaluates rules in order; the first non-empty result wins.
func firstMatch(lines []string, rules ...fieldRule) string {
	for _, r := range rules {
		if v := r(lines); v != "" {
			return v
		}
	}
	return ""
}

// parseAmount parses a comma-or-dot decimal. Returns nil on malformed input.
func parseAmount(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseDate converts d-m-y (2- or 4-digit year, - or / separators) to
// yyyy-mm-dd, or "" when s holds no date.
func parseDate(s string) string {
	m := reDateToken.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	d, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	y := m[3]
	if len(y) == 2 {
		y = "20" + y
	}
	return fmt.Sprintf("%s-%02d-%02d", y, mo, d)
}

// dateInRange bounds accepted issue years to [2000, 2030]; anything
// outside is OCR noise, not an invoice date.
func dateInRange(d string) bool {
	return len(d) >= 4 && d[:4] >= "2000" && d[:4] <= "2030"
}

// supplierTaxID: first line carrying a tax-identifier label plus 9 digits.
func (e *Extractor) supplierTaxID(lines []string) string {
	for _, line := range lines {
		if m := reSupplierNIF.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// supplierName cascade: line before a SEDE/LOJA label, then the line after
// "Vendedor", then any long line carrying a legal-entity suffix.
func (e *Extractor) supplierName(lines []string) string {
	return firstMatch(lines,
		func(lines []string) string {
			for i, line := range lines {
				if reSiteLabel.MatchString(line) && i >= 1 {
					cand := lines[i-1]
					if runeLen(cand) > 15 && !reLeadingDigit.MatchString(cand) && !strings.Contains(cand, "E-mail") {
						return truncateRunes(cand, maxNameLen)
					}
				}
			}
			return ""
		},
		func(lines []string) string {
			for i, line := range lines {
				if strings.Contains(line, "Vendedor") {
					if i+1 < len(lines) {
						return truncateRunes(lines[i+1], maxNameLen)
					}
					return ""
				}
			}
			return ""
		},
		func(lines []string) string {
			for _, line := range lines {
				if !reCompanyToken.MatchString(line) {
					continue
				}
				if strings.Contains(line, "SEDE") || strings.Contains(line, "LOJA") {
					continue
				}
				if strings.Contains(line, "E-mail") || strings.Contains(line, "Cliente") {
					continue
				}
				if runeLen(line) > 20 && !reTaxCodeLine.MatchString(line) {
					return truncateRunes(line, maxNameLen)
				}
			}
			return ""
		},
	)
}

// clientName cascade: the line after a "Contribuinte" label when it is not
// itself a tax code, then the configured known-client fragments.
func (e *Extractor) clientName(lines []string) string {
	rules := []fieldRule{
		func(lines []string) string {
			for i, line := range lines {
				if strings.Contains(line, "Contribuinte") && i+1 < len(lines) {
					next := lines[i+1]
					if !reTaxCodeLine.MatchString(next) && runeLen(next) > 3 {
						return truncateRunes(next, maxNameLen)
					}
				}
			}
			return ""
		},
	}
	for _, frag := range e.vocab.ClientFragments {
		frag := frag
		rules = append(rules, func(lines []string) string {
			for _, line := range lines {
				if strings.Contains(line, frag) && !strings.Contains(line, "Contribuinte") {
					return truncateRunes(line, maxNameLen)
				}
			}
			return ""
		})
	}
	return firstMatch(lines, rules...)
}

// clientTaxID: first VAT-prefixed 9-digit code, label-agnostic.
func (e *Extractor) clientTaxID(lines []string) string {
	for _, line := range lines {
		if m := reClientVAT.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// documentMeta extracts the document number and, when present on the same
// line or anywhere else in the text, the issue date.
func (e *Extractor) documentMeta(lines []string) (number, date string) {
	for _, line := range lines {
		if m := reDocLabel.FindStringSubmatch(line); m != nil {
			number = truncateRunes(strings.TrimSpace(m[1]), maxNumberLen)
			if m[2] != "" {
				if d := parseDate(m[2]); dateInRange(d) {
					date = d
				}
			}
			break
		}
		if number == "" {
			if m := reDocSeries.FindStringSubmatch(line); m != nil {
				number = m[1]
			}
		}
	}
	if date == "" {
		for _, line := range lines {
			d := parseDate(line)
			if dateInRange(d) {
				date = d
				break
			}
		}
	}
	return number, date
}

// totals runs three independent cascades, one per target amount; each
// fills its field at the first labelled line carrying a 2-decimal amount.
func (e *Extractor) totals(lines []string) entity.Totals {
	var t entity.Totals
	for _, line := range lines {
		if t.Gross == nil && reTotalGross.MatchString(line) {
			if m := reGrossAmount.FindStringSubmatch(line); m != nil {
				t.Gross = parseAmount(m[1])
			}
		}
		if t.Net == nil && reTotalNet.MatchString(line) {
			if m := reAmount.FindStringSubmatch(line); m != nil {
				t.Net = parseAmount(m[1])
			}
		}
		if t.VAT == nil && reTotalVAT.MatchString(line) {
			if m := reAmount.FindStringSubmatch(line); m != nil {
				t.VAT = parseAmount(m[1])
			}
		}
	}
	return t
}
