package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.ResultSink = (*Store)(nil)
var _ repo.LatestReader = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS results (
  id          BIGSERIAL PRIMARY KEY,
  cycle_id    TEXT NOT NULL DEFAULT '',
  domain      TEXT NOT NULL,
  status      TEXT NOT NULL,
  http_status INTEGER NULL,
  latency_ms  BIGINT NOT NULL,
  error       TEXT NOT NULL DEFAULT '',
  checked_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_domain_time ON results (domain, checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_cycle       ON results (cycle_id);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// EnsureSchema creates the results table when it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_ready")
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Append(ctx context.Context, o domain.CheckOutcome) error {
	var statusPtr *int
	if o.StatusCode != 0 {
		statusPtr = &o.StatusCode
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results
		   (cycle_id, domain, status, http_status, latency_ms, error, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7)`,
		o.CycleID, o.Domain, o.Status.String(), statusPtr, o.LatencyMS, o.Error, o.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) ([]domain.CheckOutcome, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (domain)
       cycle_id,
       domain,
       status,
       http_status,
       latency_ms,
       error,
       checked_at
  FROM results
 ORDER BY domain, checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckOutcome
	for rows.Next() {
		var (
			o        domain.CheckOutcome
			status   string
			httpNull sql.NullInt32
		)
		if err := rows.Scan(&o.CycleID, &o.Domain, &status, &httpNull, &o.LatencyMS, &o.Error, &o.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		if err := o.Status.UnmarshalText([]byte(status)); err != nil {
			s.log.Warn("postgres_unknown_status", zap.String("domain", o.Domain), zap.String("status", status))
		}
		if httpNull.Valid {
			o.StatusCode = int(httpNull.Int32)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
