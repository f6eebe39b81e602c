package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BailaoHugo/gestao-facturas/constants"
	"github.com/BailaoHugo/gestao-facturas/internal/async"
	"github.com/BailaoHugo/gestao-facturas/internal/entity"
	"github.com/BailaoHugo/gestao-facturas/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQueue struct {
	jobs []async.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}
func (q *fakeQueue) Shutdown(context.Context) {}

type fakeCosts struct {
	lines     map[string][]entity.CostLine
	summaries []repository.CenterSummary
	err       error
}

func (f *fakeCosts) EnsureSchema(context.Context) error { return nil }
func (f *fakeCosts) SaveLines(_ context.Context, rows []entity.CostLine) (int, error) {
	return len(rows), f.err
}
func (f *fakeCosts) ListByCenter(_ context.Context, centro string) ([]entity.CostLine, error) {
	return f.lines[centro], f.err
}
func (f *fakeCosts) SummarizeByCenter(context.Context) ([]repository.CenterSummary, error) {
	return f.summaries, f.err
}
func (f *fakeCosts) Centers(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for c := range f.lines {
		out = append(out, c)
	}
	return out, nil
}

func newTestServer(t *testing.T, queue *fakeQueue, costs *fakeCosts) *gin.Engine {
	t.Helper()
	s := New(nil, queue, costs, nil, t.TempDir(), nil)
	return s.Router()
}

func TestHealthz(t *testing.T) {
	r := newTestServer(t, &fakeQueue{}, &fakeCosts{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthzDown(t *testing.T) {
	s := New(nil, &fakeQueue{}, &fakeCosts{}, func(context.Context) error {
		return errors.New("db unreachable")
	}, t.TempDir(), nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func multipartUpload(t *testing.T, centro, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("centro", centro))
	fw, err := mw.CreateFormFile("ficheiro", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRegistarDespesa(t *testing.T) {
	q := &fakeQueue{}
	r := newTestServer(t, q, &fakeCosts{})

	body, ctype := multipartUpload(t, "25.113 - Obra CCG", "fatura energia.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/registar-despesa", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, q.jobs, 1)
	assert.Equal(t, "25.113", q.jobs[0].Centro)
	assert.Contains(t, q.jobs[0].Origin, "|centro:25.113")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(constants.JobStatusQueued), resp["status"])
	assert.NotEmpty(t, resp["trace_id"])
}

func TestRegistarDespesaInvalidCentro(t *testing.T) {
	q := &fakeQueue{}
	r := newTestServer(t, q, &fakeCosts{})

	body, ctype := multipartUpload(t, "sem centro", "fatura.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/registar-despesa", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, q.jobs)
}

func TestRegistarDespesaUnsupportedType(t *testing.T) {
	q := &fakeQueue{}
	r := newTestServer(t, q, &fakeCosts{})

	body, ctype := multipartUpload(t, "001", "notas.docx")
	req := httptest.NewRequest(http.MethodPost, "/api/registar-despesa", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Empty(t, q.jobs)
}

func TestCustosObra(t *testing.T) {
	net := 120.5
	costs := &fakeCosts{lines: map[string][]entity.CostLine{
		"25.113": {{LineID: "email_f_1", CostCenter: "25.113", TipoLinha: "materiais", NetAmount: &net}},
	}}
	r := newTestServer(t, &fakeQueue{}, costs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/custos/obras/25.113", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "email_f_1")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/custos/obras/99.999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustosObrasSummary(t *testing.T) {
	costs := &fakeCosts{summaries: []repository.CenterSummary{
		{CostCenter: "25.113", LineCount: 3, TotalNet: 450.0, ByTipo: map[string]float64{"materiais": 450.0}},
	}}
	r := newTestServer(t, &fakeQueue{}, costs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/custos/obras", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "25.113")
	assert.Contains(t, w.Body.String(), "total_liquido")
}
