package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

// BuildInvoiceWorkbook renders the record as an XLSX workbook with the
// layout the cost tooling reads: a "Cabeçalho" sheet with the header
// block and a "Linhas" sheet with one row per line item.
func BuildInvoiceWorkbook(inv entity.ExtractedInvoice) (*excelize.File, error) {
	f := excelize.NewFile()

	const headerSheet = "Cabeçalho"
	idx, err := f.NewSheet(headerSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	section := func(cell, title string) {
		_ = f.SetCellValue(headerSheet, cell, title)
		_ = f.SetCellStyle(headerSheet, cell, cell, bold)
	}

	section("A1", "Fornecedor")
	_ = f.SetCellValue(headerSheet, "A2", inv.Supplier.Name)
	_ = f.SetCellValue(headerSheet, "A3", fmt.Sprintf("NIF: %s", inv.Supplier.TaxID))
	_ = f.SetCellValue(headerSheet, "A4", inv.Supplier.Address)

	section("A6", "Cliente")
	_ = f.SetCellValue(headerSheet, "A7", inv.Client.Name)
	_ = f.SetCellValue(headerSheet, "A8", fmt.Sprintf("NIF: %s", inv.Client.TaxID))

	section("A10", "Documento")
	_ = f.SetCellValue(headerSheet, "A11", fmt.Sprintf("Nº: %s", inv.Document.Number))
	_ = f.SetCellValue(headerSheet, "A12", fmt.Sprintf("Data: %s", inv.Document.Date))

	section("A14", "Totais")
	_ = f.SetCellValue(headerSheet, "A15", fmt.Sprintf("Valor Líquido: %s", fmtAmount(inv.Totals.Net)))
	_ = f.SetCellValue(headerSheet, "A16", fmt.Sprintf("Total IVA: %s", fmtAmount(inv.Totals.VAT)))
	_ = f.SetCellValue(headerSheet, "A17", fmt.Sprintf("Total Documento: %s", fmtAmount(inv.Totals.Gross)))

	const lineSheet = "Linhas"
	if _, err := f.NewSheet(lineSheet); err != nil {
		return nil, err
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F2937"}},
	})
	if err != nil {
		return nil, err
	}

	headers := []string{"Designação", "Código", "Qtd", "Unidade", "Preço Unit.", "Valor Líquido", "IVA %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(lineSheet, cell, h)
		_ = f.SetCellStyle(lineSheet, cell, cell, headStyle)
	}

	for r, ln := range inv.Lines {
		row := r + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(lineSheet, cell, v)
		}
		write(1, ln.Description)
		write(2, ln.Code)
		write(3, ln.Quantity)
		write(4, ln.Unit)
		writeAmount(write, 5, ln.UnitPrice)
		writeAmount(write, 6, ln.NetAmount)
		writeAmount(write, 7, ln.VATPct)
	}

	_ = f.SetColWidth(lineSheet, "A", "A", 48)
	_ = f.SetColWidth(lineSheet, "B", "B", 16)
	_ = f.SetColWidth(lineSheet, "E", "G", 14)

	return f, nil
}

// WriteInvoiceXLSX renders and saves the workbook at path.
func WriteInvoiceXLSX(inv entity.ExtractedInvoice, path string) error {
	f, err := BuildInvoiceWorkbook(inv)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return f.Close()
}

func fmtAmount(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *p)
}

// writeAmount leaves the cell empty for absent values so a missing amount
// never reads as zero.
func writeAmount(write func(int, any), col int, p *float64) {
	if p != nil {
		write(col, *p)
	}
}
