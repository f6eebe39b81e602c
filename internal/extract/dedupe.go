package extract

import "github.com/BailaoHugo/gestao-facturas/internal/entity"

type itemKey struct {
	id       string
	price    float64
	hasPrice bool
}

// dedupeItems keeps the first occurrence per (code-or-description, unit
// price) key, preserving order. Invoices frequently render the same body
// twice (ORIGINAL and CÓPIA pages); this collapses the repeat.
func dedupeItems(items []entity.LineItem) []entity.LineItem {
	seen := make(map[itemKey]struct{}, len(items))
	out := make([]entity.LineItem, 0, len(items))
	for _, it := range items {
		key := itemKey{id: it.Code}
		if key.id == "" {
			key.id = it.Description
		}
		if it.UnitPrice != nil {
			key.price = *it.UnitPrice
			key.hasPrice = true
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// fallbackItem synthesizes a single line from the net total so that any
// invoice with a recoverable total yields at least one line item. Returns
// nil when no net total was found.
func fallbackItem(t entity.Totals) *entity.LineItem {
	if t.Net == nil {
		return nil
	}
	net := *t.Net
	price := net
	return &entity.LineItem{
		Description: "Total factura",
		Quantity:    1.0,
		Unit:        "UN",
		UnitPrice:   &price,
		NetAmount:   &net,
	}
}
