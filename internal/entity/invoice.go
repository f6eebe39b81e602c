package entity

// JSON tags keep the field names the rest of the tooling (web UI, exported
// ficheiros) already reads; Go names follow the usual conventions.

// Supplier identifies the issuing party of an invoice.
type Supplier struct {
	Name    string `json:"nome"`
	TaxID   string `json:"nif"`
	Address string `json:"morada"`
}

// Client identifies the billed party.
type Client struct {
	Name  string `json:"nome"`
	TaxID string `json:"nif"`
}

// DocumentMeta holds invoice-level metadata.
type DocumentMeta struct {
	Number string `json:"numero"`
	Date   string `json:"data"` // yyyy-mm-dd or empty
	Type   string `json:"tipo"` // defaults to "Fatura"
}

// LineItem is one priced entry in the invoice body. Numeric pointers are
// nil when the value was not found; a parsed zero is a real value.
type LineItem struct {
	Description string   `json:"designacao"`
	Code        string   `json:"codigo"`
	Quantity    float64  `json:"quantidade"`
	Unit        string   `json:"unidade"`
	UnitPrice   *float64 `json:"preco_unitario"`
	NetAmount   *float64 `json:"valor_liquido"`
	VATPct      *float64 `json:"iva_pct"`
}

// Totals holds the document-level amounts, each optional.
type Totals struct {
	Net   *float64 `json:"valor_liquido"`
	VAT   *float64 `json:"total_iva"`
	Gross *float64 `json:"total_documento"`
}

// ExtractedInvoice is the structured record produced by the extraction
// engine. It is constructed once per call and never mutated afterwards.
type ExtractedInvoice struct {
	Supplier            Supplier     `json:"fornecedor"`
	Client              Client       `json:"cliente"`
	Document            DocumentMeta `json:"documento"`
	Lines               []LineItem   `json:"linhas"`
	Totals              Totals       `json:"totais"`
	OriginTag           string       `json:"origem"`
	SuggestedCostCenter string       `json:"centro_custo_sugerido,omitempty"`
}
