package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BailaoHugo/gestao-facturas/constants"
	"github.com/BailaoHugo/gestao-facturas/internal/async"
	"github.com/BailaoHugo/gestao-facturas/internal/entity"
	"github.com/BailaoHugo/gestao-facturas/internal/extract"
	"github.com/BailaoHugo/gestao-facturas/internal/ledger"
	"github.com/BailaoHugo/gestao-facturas/internal/ocr"
)

const sampleText = `SEDE: Rua das Flores 10, Porto
Nº Contribuinte: 503123456
FERRAGENS DO NORTE LDA
Fatura Nº FT 1/100 01-03-2025
Total Líquido 100,00
Total Documento 123,00
`

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Extract(_ context.Context, _ string) (ocr.Result, error) {
	if f.err != nil {
		return ocr.Result{}, f.err
	}
	return ocr.Result{Text: f.text, Pages: 1, Method: "pdf-text"}, nil
}

type recordingSink struct {
	jobID      uuid.UUID
	base       string
	origem     string
	method     string
	inv        *entity.ExtractedInvoice
	rows       []entity.CostLine
	failureMsg string

	startErr error
	saveErr  error
}

func (s *recordingSink) StartJob(_ context.Context, base, origem string) (uuid.UUID, error) {
	if s.startErr != nil {
		return uuid.Nil, s.startErr
	}
	s.jobID = uuid.New()
	s.base, s.origem = base, origem
	return s.jobID, nil
}

func (s *recordingSink) MarkTextOK(_ context.Context, id uuid.UUID, method string) error {
	s.method = method
	return nil
}

func (s *recordingSink) FinishSuccess(_ context.Context, id uuid.UUID, inv *entity.ExtractedInvoice) error {
	s.inv = inv
	return nil
}

func (s *recordingSink) FinishFailure(_ context.Context, id uuid.UUID, message string) error {
	s.failureMsg = message
	return nil
}

func (s *recordingSink) SaveCostLines(_ context.Context, rows []entity.CostLine) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rows = rows
	return nil
}

func TestProcessEndToEnd(t *testing.T) {
	outDir := t.TempDir()
	sink := &recordingSink{}
	cls := ledger.NewClassifier(map[string]constants.TipoLinha{"ferragens": constants.TipoMateriais}, nil)
	p := New(nil, fakeText{text: sampleText}, extract.NewExtractor(extract.DefaultVocabulary()), cls, sink, outDir)

	job := async.NewJob("/uploads/fatura_ferragens.pdf", "email:fatura_ferragens.pdf|centro:25.113", "25.113")
	require.NoError(t, p.Process(context.Background(), job))

	require.NotNil(t, sink.inv)
	assert.Empty(t, sink.failureMsg)
	assert.Equal(t, "fatura_ferragens", sink.base)
	assert.Equal(t, "pdf-text", sink.method)
	assert.Equal(t, "FERRAGENS DO NORTE LDA", sink.inv.Supplier.Name)
	require.NotNil(t, sink.inv.Totals.Net)
	assert.InDelta(t, 100.0, *sink.inv.Totals.Net, 0.001)
	require.NotEmpty(t, sink.inv.Lines)

	require.Len(t, sink.rows, len(sink.inv.Lines))
	assert.Equal(t, "25.113", sink.rows[0].CostCenter)
	assert.Equal(t, "materiais", sink.rows[0].TipoLinha)
	assert.Equal(t, "email", sink.rows[0].Origin)
	assert.Equal(t, "email_fatura_ferragens_1", sink.rows[0].LineID)

	for _, ext := range []string{".json", ".xlsx"} {
		_, err := os.Stat(filepath.Join(outDir, "fatura_ferragens"+ext))
		assert.NoError(t, err, "missing export %s", ext)
	}
}

func TestProcessTextExtractionFailureMarksJobFailed(t *testing.T) {
	sink := &recordingSink{}
	p := New(nil, fakeText{err: errors.New("tesseract exploded")}, extract.NewExtractor(extract.DefaultVocabulary()), nil, sink, t.TempDir())

	err := p.Process(context.Background(), async.NewJob("/uploads/x.pdf", "pasta", ""))
	require.Error(t, err)
	assert.Nil(t, sink.inv)
	assert.Empty(t, sink.rows)
	assert.Contains(t, sink.failureMsg, "tesseract exploded")
}

func TestProcessPersistFailureMarksJobFailed(t *testing.T) {
	sink := &recordingSink{saveErr: errors.New("connection reset")}
	p := New(nil, fakeText{text: sampleText}, extract.NewExtractor(extract.DefaultVocabulary()), nil, sink, "")

	err := p.Process(context.Background(), async.NewJob("/uploads/f.pdf", "pasta", ""))
	require.Error(t, err)
	assert.Nil(t, sink.inv)
	assert.Contains(t, sink.failureMsg, "persist cost lines")
	assert.Contains(t, sink.failureMsg, "connection reset")
}

func TestProcessStartJobFailureAborts(t *testing.T) {
	sink := &recordingSink{startErr: errors.New("db down")}
	p := New(nil, fakeText{text: sampleText}, extract.NewExtractor(extract.DefaultVocabulary()), nil, sink, "")

	err := p.Process(context.Background(), async.NewJob("/uploads/f.pdf", "pasta", ""))
	require.Error(t, err)
	assert.Nil(t, sink.inv)
	assert.Empty(t, sink.failureMsg)
}

func TestProcessWithoutCentroUsesSuggestion(t *testing.T) {
	sink := &recordingSink{}
	p := New(nil, fakeText{text: sampleText}, extract.NewExtractor(extract.DefaultVocabulary()), nil, sink, "")

	job := async.NewJob("/uploads/f.pdf", "email:f.pdf|centro:24.54", "")
	require.NoError(t, p.Process(context.Background(), job))
	require.NotEmpty(t, sink.rows)
	assert.Equal(t, "24.54", sink.rows[0].CostCenter)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "fatura", BaseName("/a/b/fatura.pdf"))
	assert.Equal(t, "fatura.v2", BaseName("fatura.v2.pdf"))
	assert.Equal(t, "semext", BaseName("semext"))
}
