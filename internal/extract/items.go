package extract

import (
	"math"
	"regexp"
	"strings"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

var (
	reBareCode   = regexp.MustCompile(`^\d{6,15}\s*$`)
	reCodePrefix = regexp.MustCompile(`^(\d{6,15})\s+`)
	reAmountLine = regexp.MustCompile(`^\d+[,.]\d{2}\s*$`)
	reTrailPct   = regexp.MustCompile(`\s*\d{1,2}\s*%?\s*$`)
)

// verticalBlockSpan caps how many lines after a bare product code belong
// to one item block.
const verticalBlockSpan = 12

// maxAmountsPerItem caps the numeric amounts collected inside one block.
const maxAmountsPerItem = 5

// parseItems walks the line list with a single cursor. At each position
// the vertical strategy is tried first, then the horizontal one; a
// strategy that matches dictates how far the cursor advances, otherwise
// the cursor moves one line with no item produced.
func (e *Extractor) parseItems(lines []string) []entity.LineItem {
	var items []entity.LineItem
	for i := 0; i < len(lines); {
		if item, next, ok := e.verticalItem(lines, i); ok {
			if item != nil {
				items = append(items, *item)
			}
			i = next
			continue
		}
		if item, next, ok := e.horizontalItem(lines, i); ok {
			items = append(items, *item)
			i = next
			continue
		}
		i++
	}
	return items
}

// verticalItem handles the multi-line layout: a line holding only a 6-15
// digit product code, followed by a block where rate, unit, amounts and
// description each sit on their own line. The block is consumed whether
// or not it yields a valid item; it ends early at the next bare code.
func (e *Extractor) verticalItem(lines []string, i int) (*entity.LineItem, int, bool) {
	if !reBareCode.MatchString(lines[i]) {
		return nil, i, false
	}
	code := strings.TrimSpace(lines[i])

	var (
		vat  *float64
		desc string
		unit = "UN"
		nums []float64
	)
	start := i + 1
	end := start + verticalBlockSpan
	if end > len(lines) {
		end = len(lines)
	}
	k := start
	for ; k < end; k++ {
		ln := lines[k]
		if k > start && reBareCode.MatchString(ln) {
			break // next product
		}
		switch {
		case e.reRateLine.MatchString(ln):
			vat = e.vocab.ParseVATRate(strings.TrimSpace(ln))
		case e.reUnitLine.MatchString(ln):
			unit = strings.ToUpper(strings.TrimSpace(ln))
		case reAmountLine.MatchString(ln):
			if len(nums) < maxAmountsPerItem {
				if v := parseAmount(ln); v != nil {
					nums = append(nums, *v)
				}
			}
		default:
			if desc == "" && runeLen(ln) > 8 && !reLeadingDigit.MatchString(ln) &&
				!strings.Contains(ln, "€") && !e.isBoilerplate(ln) {
				desc = truncateRunes(ln, maxDescLen)
			}
		}
	}

	if desc == "" || len(nums) < 2 {
		return nil, k, true // block consumed, nothing usable in it
	}

	// First amount is the unit price. The last amount is the quantity when
	// it reads like one (a whole number between 0.5 and 100); otherwise a
	// single unit is assumed.
	price := nums[0]
	qty := 1.0
	if last := nums[len(nums)-1]; last >= 0.5 && last <= 100 && last == math.Round(last) {
		qty = last
	}
	net := math.Round(price*qty*100) / 100

	return &entity.LineItem{
		Description: desc,
		Code:        code,
		Quantity:    qty,
		Unit:        unit,
		UnitPrice:   &price,
		NetAmount:   &net,
		VATPct:      vat,
	}, k, true
}

// horizontalItem handles the single-line layout: product code, then the
// description, unit and at least two 2-decimal amounts packed on one line.
func (e *Extractor) horizontalItem(lines []string, i int) (*entity.LineItem, int, bool) {
	line := lines[i]
	m := reCodePrefix.FindStringSubmatch(line)
	vals := reAmount.FindAllString(line, -1)
	if m == nil || len(vals) < 2 {
		return nil, i, false
	}
	code := m[1]
	rest := strings.TrimSpace(line[len(code):])

	desc := strings.TrimSpace(e.reUnitSplit.Split(rest, 2)[0])
	desc = strings.TrimSpace(reTrailPct.ReplaceAllString(desc, ""))
	if runeLen(desc) < 5 {
		return nil, i, false
	}

	var vat *float64
	if rm := e.reRateWord.FindStringSubmatch(rest); rm != nil {
		vat = e.vocab.ParseVATRate(rm[1])
	}
	unit := "UN"
	if um := e.reUnitWord.FindStringSubmatch(rest); um != nil {
		unit = strings.ToUpper(um[1])
	}

	net := parseAmount(vals[len(vals)-1])
	price := parseAmount(vals[0])
	qty := 1.0
	if net != nil && price != nil && *price > 0 {
		qty = math.Round(*net / *price * 100) / 100
	}

	return &entity.LineItem{
		Description: truncateRunes(desc, maxDescLen),
		Code:        code,
		Quantity:    qty,
		Unit:        unit,
		UnitPrice:   price,
		NetAmount:   net,
		VATPct:      vat,
	}, i + 1, true
}

// isBoilerplate reports whether the line carries one of the markers that
// disqualify it as a product description.
func (e *Extractor) isBoilerplate(line string) bool {
	up := strings.ToUpper(line)
	for _, kw := range e.vocab.Boilerplate {
		if strings.Contains(up, kw) {
			return true
		}
	}
	return false
}
