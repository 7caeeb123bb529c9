package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// StockIntegrityScanner replays committed sale and purchase items per product
// and compares the implied opening balance against the one captured on the
// previous run. The opening balance is a constant for a product; when it
// moves between runs, stock was mutated outside the document flow.
type StockIntegrityScanner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStockIntegrityScanner constructs the scanner.
func NewStockIntegrityScanner(pool *pgxpool.Pool, logger *slog.Logger) *StockIntegrityScanner {
	return &StockIntegrityScanner{pool: pool, logger: logger}
}

type productBaseline struct {
	ProductID int64
	Baseline  int64
}

// Run scans every org concurrently and records findings via the logger.
func (s *StockIntegrityScanner) Run(ctx context.Context, runID string) error {
	orgIDs, err := s.listOrgs(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, orgID := range orgIDs {
		orgID := orgID
		g.Go(func() error {
			drift, err := s.scanOrg(ctx, orgID)
			if err != nil {
				return fmt.Errorf("jobs: integrity scan org %d: %w", orgID, err)
			}
			if drift > 0 {
				s.logger.Warn("stock drift detected",
					slog.String("run_id", runID),
					slog.Int64("org_id", orgID),
					slog.Int("products", drift))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("stock integrity scan finished", slog.String("run_id", runID), slog.Int("orgs", len(orgIDs)))
	return nil
}

func (s *StockIntegrityScanner) listOrgs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT org_id FROM products`)
	if err != nil {
		return nil, fmt.Errorf("jobs: list orgs: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanOrg returns the number of products whose implied opening balance moved
// since the previous run.
func (s *StockIntegrityScanner) scanOrg(ctx context.Context, orgID int64) (int, error) {
	baselines, err := s.computeBaselines(ctx, orgID)
	if err != nil {
		return 0, err
	}

	drift := 0
	for _, b := range baselines {
		var stored int64
		known := true
		err := s.pool.QueryRow(ctx, `SELECT baseline FROM stock_scan_baselines WHERE org_id = $1 AND product_id = $2`,
			orgID, b.ProductID).Scan(&stored)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return drift, fmt.Errorf("jobs: read baseline: %w", err)
			}
			known = false
		}
		if known && stored != b.Baseline {
			drift++
			s.logger.Warn("product opening balance moved",
				slog.Int64("org_id", orgID),
				slog.Int64("product_id", b.ProductID),
				slog.Int64("was", stored),
				slog.Int64("now", b.Baseline))
		}
		_, err = s.pool.Exec(ctx, `INSERT INTO stock_scan_baselines (org_id, product_id, baseline, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (org_id, product_id) DO UPDATE SET baseline = EXCLUDED.baseline, updated_at = NOW()`,
			orgID, b.ProductID, b.Baseline)
		if err != nil {
			return drift, fmt.Errorf("jobs: store baseline: %w", err)
		}
	}
	return drift, nil
}

// computeBaselines derives stock minus net document movement per product.
func (s *StockIntegrityScanner) computeBaselines(ctx context.Context, orgID int64) ([]productBaseline, error) {
	rows, err := s.pool.Query(ctx, `SELECT p.id, p.stock
  - COALESCE((SELECT SUM(pi.quantity) FROM purchase_items pi JOIN purchases pu ON pu.id = pi.purchase_id WHERE pu.org_id = p.org_id AND pi.product_id = p.id), 0)
  + COALESCE((SELECT SUM(si.quantity) FROM sale_items si JOIN sales sa ON sa.id = si.sale_id WHERE sa.org_id = p.org_id AND si.product_id = p.id), 0)
FROM products p WHERE p.org_id = $1`, orgID)
	if err != nil {
		return nil, fmt.Errorf("jobs: compute baselines: %w", err)
	}
	defer rows.Close()

	out := []productBaseline{}
	for rows.Next() {
		var b productBaseline
		if err := rows.Scan(&b.ProductID, &b.Baseline); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
