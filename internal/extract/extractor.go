package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

// costCenterMarker separates the provenance part of an origin tag from the
// suggested cost-center code (e.g. "email:doc.pdf|centro:25.113").
const costCenterMarker = "|centro:"

// Extractor maps free-form invoice text to a structured record. It holds
// only the vocabulary and the regexes compiled from it, so a single
// instance is safe for concurrent use.
type Extractor struct {
	vocab *Vocabulary

	reUnitLine  *regexp.Regexp // line holding only a unit of measure
	reUnitWord  *regexp.Regexp // unit token inside a line
	reUnitSplit *regexp.Regexp // unit token as description delimiter
	reRateLine  *regexp.Regexp // line holding only a legal VAT rate
	reRateWord  *regexp.Regexp // legal VAT rate inside a line
}

// NewExtractor builds an engine over the given vocabulary; nil means the
// built-in defaults.
func NewExtractor(vocab *Vocabulary) *Extractor {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	units := alternation(vocab.Units)
	rates := rateAlternation(vocab.LegalRates)
	return &Extractor{
		vocab:       vocab,
		reUnitLine:  regexp.MustCompile(`(?i)^(` + units + `)\s*$`),
		reUnitWord:  regexp.MustCompile(`(?i)\b(` + units + `)\b`),
		reUnitSplit: regexp.MustCompile(`(?i)\s+(` + units + `)\s+`),
		reRateLine:  regexp.MustCompile(`^(` + rates + `)\s*%?\s*$`),
		reRateWord:  regexp.MustCompile(`\b(` + rates + `)\s*%?`),
	}
}

// Vocab exposes the vocabulary in use (for the VAT helpers).
func (e *Extractor) Vocab() *Vocabulary {
	return e.vocab
}

// Extract converts one block of invoice text plus an origin tag into a
// structured record. Extraction always completes: fields the heuristics
// cannot fill stay empty or nil, which callers must treat as a valid
// low-confidence result rather than an error.
func (e *Extractor) Extract(text, origin string) entity.ExtractedInvoice {
	lines := SplitLines(text)

	inv := entity.ExtractedInvoice{
		OriginTag: origin,
		Document:  entity.DocumentMeta{Type: "Fatura"},
	}
	inv.Supplier.TaxID = e.supplierTaxID(lines)
	inv.Supplier.Name = e.supplierName(lines)
	inv.Client.Name = e.clientName(lines)
	inv.Client.TaxID = e.clientTaxID(lines)
	inv.Document.Number, inv.Document.Date = e.documentMeta(lines)
	inv.Totals = e.totals(lines)

	inv.Lines = dedupeItems(e.parseItems(lines))
	if len(inv.Lines) == 0 {
		if fb := fallbackItem(inv.Totals); fb != nil {
			inv.Lines = []entity.LineItem{*fb}
		}
	}

	inv.SuggestedCostCenter = CostCenterFromOrigin(origin)
	return inv
}

// CostCenterFromOrigin returns the code following the last "|centro:"
// marker in an origin tag, or "" when the marker is absent.
func CostCenterFromOrigin(origin string) string {
	idx := strings.LastIndex(origin, costCenterMarker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(origin[idx+len(costCenterMarker):])
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// rateAlternation renders the nonzero legal rates as integer literals,
// longest first so "23" is tried before "2" would ever be.
func rateAlternation(rates []float64) string {
	lits := make([]string, 0, len(rates))
	for i := len(rates) - 1; i >= 0; i-- {
		if rates[i] > 0 {
			lits = append(lits, strconv.Itoa(int(rates[i])))
		}
	}
	return strings.Join(lits, "|")
}
