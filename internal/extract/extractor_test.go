package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInvoice = `FERRAGENS DO NORTE, LDA
SEDE:
Rua das Flores 1, Porto
Nº Contribuinte: 503238660
SOLID PROJECTS ENGENHARIA LDA
IVA-PT-515188166
Fatura-Recibo Nº VDI 2610/201 04-06-2025
123456789
23%
UN
Produto de teste
10,00
2,00
Total Líquido 20,00
Total de IVA 4,60
Total Documento EUR 24,60`

func TestExtractEndToEnd(t *testing.T) {
	e := NewExtractor(nil)

	inv := e.Extract(sampleInvoice, "email:doc.pdf|centro:25.113")

	assert.Equal(t, "FERRAGENS DO NORTE, LDA", inv.Supplier.Name)
	assert.Equal(t, "503238660", inv.Supplier.TaxID)
	assert.Equal(t, "SOLID PROJECTS ENGENHARIA LDA", inv.Client.Name)
	assert.Equal(t, "515188166", inv.Client.TaxID)
	assert.Equal(t, "VDI 2610/201", inv.Document.Number)
	assert.Equal(t, "2025-06-04", inv.Document.Date)
	assert.Equal(t, "Fatura", inv.Document.Type)

	require.NotNil(t, inv.Totals.Net)
	assert.Equal(t, 20.0, *inv.Totals.Net)
	require.NotNil(t, inv.Totals.VAT)
	assert.Equal(t, 4.60, *inv.Totals.VAT)
	require.NotNil(t, inv.Totals.Gross)
	assert.Equal(t, 24.60, *inv.Totals.Gross)

	require.Len(t, inv.Lines, 1)
	it := inv.Lines[0]
	assert.Equal(t, "123456789", it.Code)
	assert.Equal(t, "Produto de teste", it.Description)
	assert.Equal(t, "UN", it.Unit)
	require.NotNil(t, it.VATPct)
	assert.Equal(t, 23.0, *it.VATPct)
	require.NotNil(t, it.UnitPrice)
	assert.Equal(t, 10.0, *it.UnitPrice)
	assert.Equal(t, 2.0, it.Quantity)
	require.NotNil(t, it.NetAmount)
	assert.Equal(t, 20.0, *it.NetAmount)

	assert.Equal(t, "email:doc.pdf|centro:25.113", inv.OriginTag)
	assert.Equal(t, "25.113", inv.SuggestedCostCenter)
}

func TestExtractEmptyText(t *testing.T) {
	e := NewExtractor(nil)

	inv := e.Extract("", "upload:foto.jpg")

	assert.Equal(t, "", inv.Supplier.Name)
	assert.Equal(t, "", inv.Supplier.TaxID)
	assert.Equal(t, "", inv.Client.Name)
	assert.Equal(t, "", inv.Document.Number)
	assert.Equal(t, "", inv.Document.Date)
	assert.Equal(t, "Fatura", inv.Document.Type)
	assert.Nil(t, inv.Totals.Net)
	assert.Empty(t, inv.Lines)
	assert.Equal(t, "", inv.SuggestedCostCenter)
}

func TestExtractFallbackLine(t *testing.T) {
	e := NewExtractor(nil)

	text := "Qualquer fornecedor\nTotal Líquido 154,45\n"
	inv := e.Extract(text, "")

	require.Len(t, inv.Lines, 1)
	it := inv.Lines[0]
	assert.Equal(t, "Total factura", it.Description)
	assert.Equal(t, 1.0, it.Quantity)
	require.NotNil(t, it.UnitPrice)
	assert.Equal(t, 154.45, *it.UnitPrice)
	require.NotNil(t, it.NetAmount)
	assert.Equal(t, 154.45, *it.NetAmount)
}

func TestExtractNoFallbackWithoutNetTotal(t *testing.T) {
	e := NewExtractor(nil)

	inv := e.Extract("Total Documento 99,99\n", "")
	assert.Empty(t, inv.Lines)
}

func TestCostCenterFromOrigin(t *testing.T) {
	assert.Equal(t, "25.113", CostCenterFromOrigin("email:x.pdf|centro:25.113"))
	assert.Equal(t, "001", CostCenterFromOrigin("foto|centro: 001 "))
	assert.Equal(t, "", CostCenterFromOrigin("email:x.pdf"))
	assert.Equal(t, "", CostCenterFromOrigin(""))
}

func TestExtractConcurrentUse(t *testing.T) {
	e := NewExtractor(nil)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				inv := e.Extract(sampleInvoice, "email:doc.pdf|centro:25.113")
				if len(inv.Lines) != 1 {
					t.Error("unexpected extraction under concurrency")
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
