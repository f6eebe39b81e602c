package ledger

import (
	"fmt"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

// BuildCostLines expands an extracted invoice into ledger rows, one per
// invoice line. baseName keys the line_id (email_<base>_<n>) so
// reprocessing the same attachment produces the same identifiers.
func (c *Classifier) BuildCostLines(inv *entity.ExtractedInvoice, centro, baseName, origem string) []entity.CostLine {
	rows := make([]entity.CostLine, 0, len(inv.Lines))
	for i, ln := range inv.Lines {
		rows = append(rows, entity.CostLine{
			LineID:      fmt.Sprintf("email_%s_%d", baseName, i+1),
			DocumentNo:  inv.Document.Number,
			Date:        inv.Document.Date,
			Supplier:    inv.Supplier.Name,
			Description: ln.Description,
			Quantity:    ln.Quantity,
			UnitPrice:   ln.UnitPrice,
			NetAmount:   ln.NetAmount,
			TaxPct:      ln.VATPct,
			TipoLinha:   string(c.Classify(inv.Supplier.Name, ln.Description)),
			CostCenter:  centro,
			Origin:      origem,
		})
	}
	return rows
}
