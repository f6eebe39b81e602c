package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BailaoHugo/gestao-facturas/constants"
	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

const invoicesSchema = `
CREATE TABLE IF NOT EXISTS facturas_extraidas (
	id          UUID PRIMARY KEY,
	base_name   TEXT NOT NULL,
	origem      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	method      TEXT NOT NULL DEFAULT '',
	payload     JSONB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS facturas_extraidas_base_idx ON facturas_extraidas (base_name);
`

type InvoiceRepository interface {
	EnsureSchema(ctx context.Context) error
	Start(ctx context.Context, baseName, origem string) (uuid.UUID, error)
	MarkOCROK(ctx context.Context, id uuid.UUID, method string) error
	FinishSuccess(ctx context.Context, id uuid.UUID, inv *entity.ExtractedInvoice) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
}

type invoiceRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewInvoiceRepository(pool *pgxpool.Pool, log *slog.Logger) InvoiceRepository {
	return &invoiceRepo{pool: pool, log: log}
}

func (r *invoiceRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, invoicesSchema); err != nil {
		r.log.Error("facturas_extraidas schema bootstrap failed", "err", err)
		return err
	}
	return nil
}

func (r *invoiceRepo) Start(ctx context.Context, baseName, origem string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO facturas_extraidas (id, base_name, origem, status)
		VALUES ($1, $2, $3, $4)`, id, baseName, origem, string(constants.JobStatusRunning))
	if err != nil {
		r.log.Error("invoice job start failed", "base_name", baseName, "err", err)
		return uuid.Nil, err
	}
	r.log.Info("invoice job started", "job_id", id, "base_name", baseName)
	return id, nil
}

// MarkOCROK records that the text stage completed and how the text was
// acquired (pdf-text, pdf-ocr, image-ocr, txt).
func (r *invoiceRepo) MarkOCROK(ctx context.Context, id uuid.UUID, method string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE facturas_extraidas
		SET status = $2, method = $3
		WHERE id = $1`, id, string(constants.JobStatusOCROK), method)
	if err != nil {
		r.log.Error("invoice job mark(OCR_OK) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Debug("invoice job text acquired", "job_id", id, "method", method)
	return nil
}

func (r *invoiceRepo) FinishSuccess(ctx context.Context, id uuid.UUID, inv *entity.ExtractedInvoice) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE facturas_extraidas
		SET status = $2, payload = $3, finished_at = $4
		WHERE id = $1`, id, string(constants.JobStatusExtractOK), payload, time.Now())
	if err != nil {
		r.log.Error("invoice job finish(OK) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Info("invoice job finished (EXTRACT_OK)", "job_id", id, "linhas", len(inv.Lines))
	return nil
}

func (r *invoiceRepo) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE facturas_extraidas
		SET status = $2, error = $3, finished_at = $4
		WHERE id = $1`, id, string(constants.JobStatusFailed), message, time.Now())
	if err != nil {
		r.log.Error("invoice job finish(FAILED) failed", "job_id", id, "err", err)
		return err
	}
	r.log.Warn("invoice job finished (FAILED)", "job_id", id, "error", message)
	return nil
}
