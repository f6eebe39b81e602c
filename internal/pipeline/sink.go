package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
	"github.com/BailaoHugo/gestao-facturas/internal/repository"
)

// DBSink persists pipeline results in Postgres.
type DBSink struct {
	Invoices  repository.InvoiceRepository
	CostLines repository.CostLineRepository
}

func (s *DBSink) StartJob(ctx context.Context, baseName, origem string) (uuid.UUID, error) {
	return s.Invoices.Start(ctx, baseName, origem)
}

func (s *DBSink) MarkTextOK(ctx context.Context, id uuid.UUID, method string) error {
	return s.Invoices.MarkOCROK(ctx, id, method)
}

func (s *DBSink) FinishSuccess(ctx context.Context, id uuid.UUID, inv *entity.ExtractedInvoice) error {
	return s.Invoices.FinishSuccess(ctx, id, inv)
}

func (s *DBSink) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	return s.Invoices.FinishFailure(ctx, id, message)
}

func (s *DBSink) SaveCostLines(ctx context.Context, rows []entity.CostLine) error {
	_, err := s.CostLines.SaveLines(ctx, rows)
	return err
}
