// Package pipeline chains the processing stages for one invoice file:
// text acquisition, field extraction, export and ledger feed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/BailaoHugo/gestao-facturas/internal/async"
	"github.com/BailaoHugo/gestao-facturas/internal/entity"
	"github.com/BailaoHugo/gestao-facturas/internal/export"
	"github.com/BailaoHugo/gestao-facturas/internal/extract"
	"github.com/BailaoHugo/gestao-facturas/internal/ledger"
	"github.com/BailaoHugo/gestao-facturas/internal/ocr"
)

// TextExtractor acquires plain text from an invoice file.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.Result, error)
}

// ResultSink persists pipeline outcomes and the job lifecycle
// (database, or a no-op in the one-shot CLI). A job started here always
// ends in FinishSuccess or FinishFailure.
type ResultSink interface {
	StartJob(ctx context.Context, baseName, origem string) (uuid.UUID, error)
	MarkTextOK(ctx context.Context, id uuid.UUID, method string) error
	FinishSuccess(ctx context.Context, id uuid.UUID, inv *entity.ExtractedInvoice) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
	SaveCostLines(ctx context.Context, rows []entity.CostLine) error
}

type NopSink struct{}

func (NopSink) StartJob(context.Context, string, string) (uuid.UUID, error) {
	return uuid.Nil, nil
}
func (NopSink) MarkTextOK(context.Context, uuid.UUID, string) error { return nil }
func (NopSink) FinishSuccess(context.Context, uuid.UUID, *entity.ExtractedInvoice) error {
	return nil
}
func (NopSink) FinishFailure(context.Context, uuid.UUID, string) error { return nil }
func (NopSink) SaveCostLines(context.Context, []entity.CostLine) error { return nil }

// Pipeline wires the stages together.
type Pipeline struct {
	logger     *slog.Logger
	text       TextExtractor
	engine     *extract.Extractor
	classifier *ledger.Classifier
	sink       ResultSink
	outDir     string
}

func New(logger *slog.Logger, text TextExtractor, engine *extract.Extractor, classifier *ledger.Classifier, sink ResultSink, outDir string) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = ledger.NewClassifier(nil, nil)
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Pipeline{
		logger:     logger,
		text:       text,
		engine:     engine,
		classifier: classifier,
		sink:       sink,
		outDir:     outDir,
	}
}

// Process runs one job end to end. Any stage error after the job record
// is opened marks it FAILED; partially written exports for the same
// base name are overwritten on the next attempt.
func (p *Pipeline) Process(ctx context.Context, job async.Job) error {
	base := BaseName(job.Path)
	log := p.logger.With("base_name", base, "trace_id", job.TraceID)

	jobID, err := p.sink.StartJob(ctx, base, job.Origin)
	if err != nil {
		log.Error("job record failed", "err", err)
		return fmt.Errorf("start job: %w", err)
	}

	res, err := p.text.Extract(ctx, job.Path)
	if err != nil {
		return p.fail(ctx, jobID, log, "text extraction", err)
	}
	log.Debug("text acquired", "method", res.Method, "pages", res.Pages, "chars", len(res.Text))
	if err := p.sink.MarkTextOK(ctx, jobID, res.Method); err != nil {
		log.Warn("job status update failed", "err", err)
	}

	text := ocr.Normalize(res.Text)
	inv := p.engine.Extract(text, job.Origin)

	centro := job.Centro
	if centro == "" {
		centro = inv.SuggestedCostCenter
	}

	if p.outDir != "" {
		if err := os.MkdirAll(p.outDir, 0o755); err != nil {
			return p.fail(ctx, jobID, log, "create output dir", err)
		}
		if err := export.WriteInvoiceJSON(inv, filepath.Join(p.outDir, base+".json")); err != nil {
			return p.fail(ctx, jobID, log, "json export", err)
		}
		if err := export.WriteInvoiceXLSX(inv, filepath.Join(p.outDir, base+".xlsx")); err != nil {
			return p.fail(ctx, jobID, log, "xlsx export", err)
		}
	}

	rows := p.classifier.BuildCostLines(&inv, centro, base, originKind(job.Origin))
	if len(rows) > 0 {
		if err := p.sink.SaveCostLines(ctx, rows); err != nil {
			return p.fail(ctx, jobID, log, "persist cost lines", err)
		}
	}

	if err := p.sink.FinishSuccess(ctx, jobID, &inv); err != nil {
		return p.fail(ctx, jobID, log, "persist invoice", err)
	}

	log.Info("invoice processed",
		"fornecedor", inv.Supplier.Name,
		"documento", inv.Document.Number,
		"linhas", len(inv.Lines),
		"centro", centro,
	)
	return nil
}

// fail records the FAILED status (best effort) and wraps the stage error.
func (p *Pipeline) fail(ctx context.Context, jobID uuid.UUID, log *slog.Logger, stage string, err error) error {
	log.Error(stage+" failed", "err", err)
	msg := fmt.Sprintf("%s: %v", stage, err)
	if ferr := p.sink.FinishFailure(ctx, jobID, msg); ferr != nil {
		log.Error("failure status update failed", "err", ferr)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// BaseName strips directory and extension from a file path.
func BaseName(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func originKind(origin string) string {
	if strings.HasPrefix(origin, "email:") {
		return "email"
	}
	return "pasta"
}
