// Package store keeps a history of typing runs in SQLite or Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"mlst/internal/typing"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

var sqlOpen = sql.Open

// createdLayout is fixed width so created_at sorts as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is an open run history.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Run is one invocation to be saved.
type Run struct {
	ID      string
	Sample  string
	Created time.Time
	Report  typing.Report
}

// RunSummary is a row of the history listing.
type RunSummary struct {
	ID          string
	Sample      string
	Created     time.Time
	Found       bool
	Results     int
	Diagnostics int
}

// StoredResult is one saved result of a run.
type StoredResult struct {
	Scheme        string
	Status        string
	ST            string
	ClonalComplex string
	Score         float64
	Calls         []typing.AlleleCall
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to dsn and creates the history tables when missing.
// postgres:// and postgresql:// URLs go to Postgres; anything else is a
// SQLite file path, optionally prefixed with file:.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}
	s := &Store{}
	driver := "sqlite"
	if isPostgres(dsn) {
		driver = "pgx"
		s.dialect = dialectPostgres
	} else {
		path := strings.TrimPrefix(dsn, "file:")
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	}
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s.db = db
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS typing_run (
		id TEXT PRIMARY KEY,
		sample TEXT NOT NULL,
		created_at TEXT NOT NULL,
		found INTEGER NOT NULL,
		results INTEGER NOT NULL,
		diagnostics INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS typing_result (
		run_id TEXT NOT NULL REFERENCES typing_run(id),
		ord INTEGER NOT NULL,
		scheme TEXT NOT NULL,
		status TEXT NOT NULL,
		st TEXT NOT NULL,
		clonal_complex TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		calls TEXT NOT NULL,
		PRIMARY KEY (run_id, ord)
	)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveRun writes a run and its results in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) (retErr error) {
	if run.ID == "" {
		return errors.New("run id is empty")
	}
	if run.Created.IsZero() {
		run.Created = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	rep := run.Report
	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO typing_run (id, sample, created_at, found, results, diagnostics) VALUES (?, ?, ?, ?, ?, ?)`),
		run.ID, run.Sample, run.Created.UTC().Format(createdLayout),
		boolInt(rep.Found()), len(rep.Results), len(rep.Diagnostics)); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	ins := s.rebind(`INSERT INTO typing_result (run_id, ord, scheme, status, st, clonal_complex, score, calls) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, r := range rep.Results {
		calls, err := json.Marshal(r.Calls)
		if err != nil {
			return fmt.Errorf("encode calls: %w", err)
		}
		if _, err := tx.ExecContext(ctx, ins, run.ID, i, r.Scheme, r.Status.String(), r.ST, r.ClonalComplex, r.Score, string(calls)); err != nil {
			return fmt.Errorf("insert result %s/%s: %w", run.ID, r.Scheme, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	q := `SELECT id, sample, created_at, found, results, diagnostics FROM typing_run ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RunSummary
	for rows.Next() {
		var (
			r       RunSummary
			created string
			found   int
		)
		if err := rows.Scan(&r.ID, &r.Sample, &created, &found, &r.Results, &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.Created, err = time.Parse(createdLayout, created); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q", r.ID, created)
		}
		r.Found = found != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Results returns the saved results of one run in report order.
func (s *Store) Results(ctx context.Context, runID string) ([]StoredResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT scheme, status, st, clonal_complex, score, calls FROM typing_result WHERE run_id = ? ORDER BY ord`), runID)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []StoredResult
	for rows.Next() {
		var (
			r     StoredResult
			calls string
		)
		if err := rows.Scan(&r.Scheme, &r.Status, &r.ST, &r.ClonalComplex, &r.Score, &calls); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(calls), &r.Calls); err != nil {
			return nil, fmt.Errorf("decode calls of %s/%s: %w", runID, r.Scheme, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
