package entity

// CostLine is one row of the cost ledger (custos_registo), produced by
// merging an extracted invoice with its cost-center assignment.
type CostLine struct {
	LineID      string   `json:"line_id"`
	DocumentNo  string   `json:"document_no"`
	Date        string   `json:"date"` // yyyy-mm-dd or empty
	Supplier    string   `json:"supplier"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	NetAmount   *float64 `json:"net_amount"`
	TaxPct      *float64 `json:"tax_pct"`
	TipoLinha   string   `json:"tipo_linha"`
	CostCenter  string   `json:"centro_custo_codigo"`
	Origin      string   `json:"origem"`
}
