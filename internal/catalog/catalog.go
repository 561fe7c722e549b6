// Package catalog records one row per rendered model in Postgres.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/turntable"
)

// Config selects the database and table.
type Config struct {
	DSN     string        `yaml:"dsn"`
	Table   string        `yaml:"table"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a local database configuration.
func DefaultConfig() Config {
	return Config{
		DSN:     "host=127.0.0.1 port=5432 user=spinner dbname=spinner sslmode=disable",
		Table:   "turntables",
		Timeout: 5 * time.Second,
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Catalog is a turntable.Observer that upserts a row per model hash when a
// file finishes.
type Catalog struct {
	db      execer
	closer  func() error
	table   string
	timeout time.Duration

	mu          sync.Mutex
	errorLogged bool
}

// Open connects to Postgres and creates the table if needed.
func Open(ctx context.Context, cfg Config) (*Catalog, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	c := newCatalog(db, cfg)
	c.closer = db.Close
	if err := c.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s table: %w", cfg.Table, err)
	}
	return c, nil
}

func newCatalog(db execer, cfg Config) *Catalog {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Catalog{
		db:      db,
		table:   pq.QuoteIdentifier(cfg.Table),
		timeout: cfg.Timeout,
	}
}

// Close releases the connection pool.
func (c *Catalog) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *Catalog) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			hash        TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			path        TEXT NOT NULL,
			frames      INTEGER NOT NULL,
			rendered    INTEGER NOT NULL,
			skipped     INTEGER NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT,
			run_id      TEXT NOT NULL,
			duration_ms BIGINT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`, c.table)
	_, err := c.db.ExecContext(ctx, query)
	return err
}

// Record upserts the report. Reports without a hash (the file never
// resolved) are not recorded.
func (c *Catalog) Record(ctx context.Context, rep turntable.Report) error {
	if rep.Hash == "" {
		return nil
	}

	var errText *string
	if rep.Err != nil {
		s := rep.Err.Error()
		errText = &s
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (hash, source, path, frames, rendered, skipped, status, error, run_id, duration_ms, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (hash) DO UPDATE SET
			source = EXCLUDED.source,
			path = EXCLUDED.path,
			frames = EXCLUDED.frames,
			rendered = EXCLUDED.rendered,
			skipped = EXCLUDED.skipped,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			run_id = EXCLUDED.run_id,
			duration_ms = EXCLUDED.duration_ms,
			updated_at = EXCLUDED.updated_at`, c.table)

	_, err := c.db.ExecContext(ctx, query,
		rep.Hash, rep.Source, rep.Path,
		rep.Frames, rep.Rendered, rep.Skipped,
		rep.Status, errText, rep.RunID,
		rep.Duration.Milliseconds(), time.Now().UTC(),
	)
	return err
}

func (c *Catalog) OnFileStart(string, string)   {}
func (c *Catalog) OnFrame(turntable.FrameEvent) {}

// OnFileDone records the report. Only the first failure is logged.
func (c *Catalog) OnFileDone(rep turntable.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.Record(ctx, rep); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.errorLogged {
			logger.Warn("catalog write failed", zap.String("hash", rep.Hash), zap.Error(err))
			c.errorLogged = true
		}
	}
}
