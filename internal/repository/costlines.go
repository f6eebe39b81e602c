package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BailaoHugo/gestao-facturas/internal/entity"
)

const costLinesSchema = `
CREATE TABLE IF NOT EXISTS custos_registo (
	line_id             TEXT PRIMARY KEY,
	document_no         TEXT NOT NULL DEFAULT '',
	date                TEXT NOT NULL DEFAULT '',
	supplier            TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	quantity            DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit_price          DOUBLE PRECISION,
	net_amount          DOUBLE PRECISION,
	tax_pct             DOUBLE PRECISION,
	tipo_linha          TEXT NOT NULL DEFAULT 'materiais',
	centro_custo_codigo TEXT NOT NULL DEFAULT '',
	origem              TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS custos_registo_centro_idx ON custos_registo (centro_custo_codigo);
`

// CenterSummary aggregates ledger rows for one cost center.
type CenterSummary struct {
	CostCenter string             `json:"centro_custo_codigo"`
	LineCount  int64              `json:"num_linhas"`
	TotalNet   float64            `json:"total_liquido"`
	ByTipo     map[string]float64 `json:"por_tipo"`
}

type CostLineRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveLines(ctx context.Context, rows []entity.CostLine) (int, error)
	ListByCenter(ctx context.Context, centro string) ([]entity.CostLine, error)
	SummarizeByCenter(ctx context.Context) ([]CenterSummary, error)
	Centers(ctx context.Context) ([]string, error)
}

type costLineRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCostLineRepository(pool *pgxpool.Pool, log *slog.Logger) CostLineRepository {
	return &costLineRepo{pool: pool, log: log}
}

func (r *costLineRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, costLinesSchema); err != nil {
		r.log.Error("custos_registo schema bootstrap failed", "err", err)
		return err
	}
	return nil
}

// SaveLines upserts ledger rows keyed by line_id, so reprocessing an
// attachment overwrites its earlier rows instead of duplicating them.
func (r *costLineRepo) SaveLines(ctx context.Context, rows []entity.CostLine) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO custos_registo
				(line_id, document_no, date, supplier, description, quantity,
				 unit_price, net_amount, tax_pct, tipo_linha, centro_custo_codigo, origem)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (line_id) DO UPDATE SET
				document_no = EXCLUDED.document_no,
				date = EXCLUDED.date,
				supplier = EXCLUDED.supplier,
				description = EXCLUDED.description,
				quantity = EXCLUDED.quantity,
				unit_price = EXCLUDED.unit_price,
				net_amount = EXCLUDED.net_amount,
				tax_pct = EXCLUDED.tax_pct,
				tipo_linha = EXCLUDED.tipo_linha,
				centro_custo_codigo = EXCLUDED.centro_custo_codigo,
				origem = EXCLUDED.origem`,
			row.LineID, row.DocumentNo, row.Date, row.Supplier, row.Description, row.Quantity,
			row.UnitPrice, row.NetAmount, row.TaxPct, row.TipoLinha, row.CostCenter, row.Origin)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range rows {
		if _, err := br.Exec(); err != nil {
			r.log.Error("cost line upsert failed", "line_id", rows[i].LineID, "err", err)
			return i, err
		}
	}
	r.log.Info("cost lines saved", "count", len(rows), "centro", rows[0].CostCenter)
	return len(rows), nil
}

func (r *costLineRepo) ListByCenter(ctx context.Context, centro string) ([]entity.CostLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT line_id, document_no, date, supplier, description, quantity,
		       unit_price, net_amount, tax_pct, tipo_linha, centro_custo_codigo, origem
		FROM custos_registo
		WHERE centro_custo_codigo = $1
		ORDER BY date, line_id`, centro)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.CostLine
	for rows.Next() {
		var cl entity.CostLine
		if err := rows.Scan(&cl.LineID, &cl.DocumentNo, &cl.Date, &cl.Supplier, &cl.Description,
			&cl.Quantity, &cl.UnitPrice, &cl.NetAmount, &cl.TaxPct, &cl.TipoLinha,
			&cl.CostCenter, &cl.Origin); err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

func (r *costLineRepo) SummarizeByCenter(ctx context.Context) ([]CenterSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT centro_custo_codigo, tipo_linha, COUNT(*), COALESCE(SUM(net_amount), 0)
		FROM custos_registo
		WHERE centro_custo_codigo <> ''
		GROUP BY centro_custo_codigo, tipo_linha
		ORDER BY centro_custo_codigo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byCenter := map[string]*CenterSummary{}
	var order []string
	for rows.Next() {
		var centro, tipo string
		var count int64
		var net float64
		if err := rows.Scan(&centro, &tipo, &count, &net); err != nil {
			return nil, err
		}
		s, ok := byCenter[centro]
		if !ok {
			s = &CenterSummary{CostCenter: centro, ByTipo: map[string]float64{}}
			byCenter[centro] = s
			order = append(order, centro)
		}
		s.LineCount += count
		s.TotalNet += net
		s.ByTipo[tipo] += net
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]CenterSummary, 0, len(order))
	for _, c := range order {
		out = append(out, *byCenter[c])
	}
	return out, nil
}

func (r *costLineRepo) Centers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT centro_custo_codigo FROM custos_registo
		WHERE centro_custo_codigo <> '' ORDER BY centro_custo_codigo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
