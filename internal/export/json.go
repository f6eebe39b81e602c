package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

// MarshalInvoice renders the record as indented JSON after checking it
// against the invoice schema. A schema failure here means an engine bug,
// not bad input, so it is surfaced rather than swallowed.
func MarshalInvoice(inv entity.ExtractedInvoice) ([]byte, error) {
	b, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal invoice: %w", err)
	}
	if err := ValidateAgainstSchema(BuildInvoiceJSONSchema(), b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteInvoiceJSON persists the record to path as a per-document file.
func WriteInvoiceJSON(inv entity.ExtractedInvoice, path string) error {
	b, err := MarshalInvoice(inv)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
