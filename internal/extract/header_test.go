package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLines(t *testing.T) {
	lines := SplitLines("  a \n\n\t\nb\r\n  c  \n")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
	assert.Empty(t, SplitLines(""))
	assert.Empty(t, SplitLines("\n\n  \n"))
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, "2025-06-04", parseDate("04-06-2025"))
	assert.Equal(t, "2025-06-04", parseDate("emitida a 4/6/25"))
	assert.Equal(t, "2024-01-31", parseDate("31/01/2024"))
	assert.Equal(t, "", parseDate("sem data nenhuma"))
}

func TestSupplierTaxID(t *testing.T) {
	e := NewExtractor(nil)

	lines := []string{
		"FERRAGENS DO NORTE, LDA",
		"Nº Contribuinte: 503238660",
	}
	assert.Equal(t, "503238660", e.supplierTaxID(lines))

	// accented/case label variants
	assert.Equal(t, "111222333",
		e.supplierTaxID([]string{"nº contribuinte 111222333"}))

	assert.Equal(t, "", e.supplierTaxID([]string{"sem nif aqui"}))
}

func TestSupplierNameCascade(t *testing.T) {
	e := NewExtractor(nil)

	// rule (a): line before a SEDE/LOJA label
	lines := []string{
		"FERRAGENS DO NORTE, LDA",
		"SEDE:",
		"Rua das Flores 1",
	}
	assert.Equal(t, "FERRAGENS DO NORTE, LDA", e.supplierName(lines))

	// rule (a) rejects short candidates and falls through to rule (b)
	lines = []string{
		"CURTO",
		"LOJA:",
		"Vendedor",
		"Materiais de Construção Silva & Filhos",
	}
	assert.Equal(t, "Materiais de Construção Silva & Filhos", e.supplierName(lines))

	// rule (c): company-suffix line
	lines = []string{
		"Documento processado por computador",
		"CONSTRUÇÕES ALMEIDA UNIPESSOAL LIMITADA",
	}
	assert.Equal(t, "CONSTRUÇÕES ALMEIDA UNIPESSOAL LIMITADA", e.supplierName(lines))

	// rule (c) skips tax-ID-looking and labelled lines
	lines = []string{
		"503238660 FERRAGENS DO NORTE LDA XX",
		"E-mail geral LDA qualquer coisa em texto",
	}
	assert.Equal(t, "", e.supplierName(lines))
}

func TestClientName(t *testing.T) {
	e := NewExtractor(nil)

	// line after "Contribuinte" wins when it is not a tax code
	lines := []string{
		"Contribuinte",
		"Obras e Reabilitação, SA",
	}
	assert.Equal(t, "Obras e Reabilitação, SA", e.clientName(lines))

	// tax-code-looking successor is skipped; configured fragment applies
	lines = []string{
		"Contribuinte",
		"515188166",
		"SOLID PROJECTS ENGENHARIA",
	}
	assert.Equal(t, "SOLID PROJECTS ENGENHARIA", e.clientName(lines))

	assert.Equal(t, "", e.clientName([]string{"nada relevante"}))
}

func TestClientTaxID(t *testing.T) {
	e := NewExtractor(nil)

	assert.Equal(t, "515188166", e.clientTaxID([]string{"IVA-PT-515188166"}))
	assert.Equal(t, "515188166", e.clientTaxID([]string{"cliente iva pt", "IVAPT515188166"}))
	assert.Equal(t, "", e.clientTaxID([]string{"PT só texto"}))
}

func TestDocumentMeta(t *testing.T) {
	e := NewExtractor(nil)

	// label line with trailing date
	num, date := e.documentMeta([]string{"Fatura-Recibo Nº FT A/123 04-06-2025"})
	assert.Equal(t, "FT A/123", num)
	assert.Equal(t, "2025-06-04", date)

	// series fallback plus generic date scan
	num, date = e.documentMeta([]string{
		"VDI 2610/201",
		"Data de emissão: 12/03/2024",
	})
	assert.Equal(t, "VDI 2610/201", num)
	assert.Equal(t, "2024-03-12", date)

	// generic date scan rejects out-of-range years
	_, date = e.documentMeta([]string{"01-01-1999", "01-01-2031"})
	assert.Equal(t, "", date)

	// the label line date obeys the same year bound
	num, date = e.documentMeta([]string{"Fatura Nº ABC123 01-01-1999"})
	assert.Equal(t, "ABC123", num)
	assert.Equal(t, "", date)
}

func TestDocumentDateYearBounds(t *testing.T) {
	e := NewExtractor(nil)

	for _, line := range []string{"05-05-2000", "05-05-2030", "05-05-25"} {
		_, date := e.documentMeta([]string{line})
		require.NotEmpty(t, date, "line %q", line)
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, date)
		assert.GreaterOrEqual(t, date[:4], "2000")
		assert.LessOrEqual(t, date[:4], "2030")
	}
}

func TestTotals(t *testing.T) {
	e := NewExtractor(nil)

	lines := []string{
		"Total Líquido 154,45",
		"Total de IVA 35,52",
		"Total Documento EUR 189,97",
	}
	tt := e.totals(lines)
	require.NotNil(t, tt.Net)
	require.NotNil(t, tt.VAT)
	require.NotNil(t, tt.Gross)
	assert.Equal(t, 154.45, *tt.Net)
	assert.Equal(t, 35.52, *tt.VAT)
	assert.Equal(t, 189.97, *tt.Gross)
}

func TestTotalsFirstMatchPerField(t *testing.T) {
	e := NewExtractor(nil)

	lines := []string{
		"Total Documento 10,00",
		"Total Documento 99,99",
		"sem valores aqui",
	}
	tt := e.totals(lines)
	require.NotNil(t, tt.Gross)
	assert.Equal(t, 10.0, *tt.Gross)
	assert.Nil(t, tt.Net)
	assert.Nil(t, tt.VAT)
}
