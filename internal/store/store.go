// Package store records per-region liftover outcomes and answers
// per-chromosome/total summary queries after a run (spec §4.13).
// Grounded on teacher internal/duckdb/store.go + variants.go: a
// *sql.DB wrapping go-duckdb, schema created on Open, and an
// Appender-based batch writer. Rows are not deduplicated: every
// RecordRegion call adds one row.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// Outcome is the per-region result kind recorded against a chromosome.
type Outcome string

const (
	OutcomeOk          Outcome = "ok"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeInvalid     Outcome = "invalid"
)

// RunSummary holds per-chromosome (or run-wide, for Totals) counters.
type RunSummary struct {
	Chrom              string
	RegionsOk          int64
	RegionsUnsupported int64
	RegionsInvalid     int64
	VariantsEmitted    int64
}

// Store wraps a DuckDB connection, in-memory by default or file-backed
// when opened with a path.
type Store struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	pending []regionRow
}

type regionRow struct {
	chrom   string
	outcome Outcome
	nVars   int
}

// Open opens or creates a DuckDB database at path. An empty path opens an
// in-memory database, matching teacher duckdb.Open("").
func Open(path string) (*Store, error) {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS region_outcomes (
		chrom VARCHAR,
		outcome VARCHAR,
		variants_emitted BIGINT
	)`)
	return err
}

// RecordRegion buffers one region's outcome for the given chromosome. To
// match the teacher's Appender-batched write pattern rather than issuing
// one INSERT per region (which would dominate run time on large liftover
// jobs), rows accumulate in memory and are written by Flush, which runs
// automatically once flushBatchSize rows are pending and before every
// Summary/Totals query; callers may also call Flush directly.
func (s *Store) RecordRegion(chrom string, outcome Outcome, variantsEmitted int) error {
	s.mu.Lock()
	s.pending = append(s.pending, regionRow{chrom: chrom, outcome: outcome, nVars: variantsEmitted})
	dueFlush := len(s.pending) >= flushBatchSize
	s.mu.Unlock()
	if dueFlush {
		return s.Flush()
	}
	return nil
}

// flushBatchSize bounds how many rows accumulate in memory between
// Appender flushes.
const flushBatchSize = 10000

// Flush writes any buffered region outcomes to DuckDB via the Appender
// API, grounded on teacher duckdb.WriteVariantResults's
// NewAppenderFromConn/AppendRow/Flush sequence.
func (s *Store) Flush() error {
	s.mu.Lock()
	rows := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "region_outcomes")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range rows {
		if err := appender.AppendRow(r.chrom, string(r.outcome), int64(r.nVars)); err != nil {
			return fmt.Errorf("append region outcome: %w", err)
		}
	}
	return appender.Flush()
}

// Summary returns the counters for one chromosome, flushing any pending
// rows first so the query sees them.
func (s *Store) Summary(chrom string) (RunSummary, error) {
	if err := s.Flush(); err != nil {
		return RunSummary{}, err
	}
	row := s.db.QueryRow(`SELECT
		COALESCE(SUM(CASE WHEN outcome='ok' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome='unsupported' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome='invalid' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(variants_emitted), 0)
		FROM region_outcomes WHERE chrom=?`, chrom)

	out := RunSummary{Chrom: chrom}
	if err := row.Scan(&out.RegionsOk, &out.RegionsUnsupported, &out.RegionsInvalid, &out.VariantsEmitted); err != nil {
		return RunSummary{}, fmt.Errorf("scan summary: %w", err)
	}
	return out, nil
}

// Totals returns the run-wide counters across every chromosome.
func (s *Store) Totals() (RunSummary, error) {
	if err := s.Flush(); err != nil {
		return RunSummary{}, err
	}
	row := s.db.QueryRow(`SELECT
		COALESCE(SUM(CASE WHEN outcome='ok' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome='unsupported' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome='invalid' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(variants_emitted), 0)
		FROM region_outcomes`)

	var out RunSummary
	if err := row.Scan(&out.RegionsOk, &out.RegionsUnsupported, &out.RegionsInvalid, &out.VariantsEmitted); err != nil {
		return RunSummary{}, fmt.Errorf("scan totals: %w", err)
	}
	return out, nil
}
