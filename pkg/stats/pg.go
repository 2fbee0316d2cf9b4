package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore appends stats rows to a PostgreSQL table.
type PGStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGStore connects to databaseURL and creates table if needed.
func NewPGStore(ctx context.Context, databaseURL, table string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 4
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTableSQL(s.table))
	return err
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		run_id TEXT NOT NULL,
		instance TEXT NOT NULL,
		finished BOOLEAN NOT NULL,
		solving_time DOUBLE PRECISION,
		nodes BIGINT,
		gap DOUBLE PRECISION,
		dual_bound DOUBLE PRECISION,
		primal_bound DOUBLE PRECISION,
		optimal DOUBLE PRECISION,
		optimal_gap DOUBLE PRECISION,
		best_primal_time DOUBLE PRECISION,
		presolve_time DOUBLE PRECISION,
		branch_time DOUBLE PRECISION,
		branched_vars BIGINT,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (run_id, instance)
	)`, table)
}

func insertSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (run_id, instance, finished, solving_time, nodes, gap, dual_bound,
			primal_bound, optimal, optimal_gap, best_primal_time, presolve_time, branch_time, branched_vars)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (run_id, instance) DO UPDATE SET
			finished = EXCLUDED.finished,
			solving_time = EXCLUDED.solving_time,
			nodes = EXCLUDED.nodes,
			gap = EXCLUDED.gap,
			dual_bound = EXCLUDED.dual_bound,
			primal_bound = EXCLUDED.primal_bound,
			optimal = EXCLUDED.optimal,
			optimal_gap = EXCLUDED.optimal_gap,
			best_primal_time = EXCLUDED.best_primal_time,
			presolve_time = EXCLUDED.presolve_time,
			branch_time = EXCLUDED.branch_time,
			branched_vars = EXCLUDED.branched_vars,
			recorded_at = now()
	`, table)
}

// nullable maps an infinite gap to NULL.
func nullable(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Insert stores rows under runID in one batch.
func (s *PGStore) Insert(ctx context.Context, runID string, rows []Row) error {
	query := insertSQL(s.table)
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(query,
			runID, r.Instance, r.Finished,
			r.SolvingTime, r.Nodes, nullable(r.Gap), r.DualBound,
			r.PrimalBound, r.Optimal, r.OptimalGap,
			r.BestPrimalTime, r.PresolveTime, r.BranchTime, r.BranchedVars)
	}

	br := s.pool.SendBatch(ctx, batch)
	for _, r := range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert stats for %s: %w", r.Instance, err)
		}
	}
	return br.Close()
}

// Close closes the connection pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
