// Package evalstore records evaluation runs and their rows in SQLite for later audit.
package evalstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/eccnrag/internal/domain/evaluation"
	"github.com/kailas-cloud/eccnrag/internal/repository/evalstore/migrations"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("evaluation run not found")

// Store is a SQLite-backed audit log of evaluation runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer; rows are written from several eval workers
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck // close error is self-describing
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// BeginRun inserts a run header.
func (s *Store) BeginRun(ctx context.Context, r evaluation.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO eval_runs (id, dataset, build_id, model, top_k, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Dataset, r.BuildID, r.Model, r.K, r.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// SaveRecord stores the row at position seq of the run.
func (s *Store) SaveRecord(ctx context.Context, runID string, seq int, rec evaluation.Record) error {
	candidates, err := json.Marshal(rec.Candidates())
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	sample := rec.Sample()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO eval_rows (
			run_id, seq, query_text, true_ecn, predicted_ecn,
			exact_match, parent_match, recall_at_k, abstained, in_candidates,
			outcome, candidates, llm_output, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, sample.Query, sample.TrueCode, rec.PredictedCode(),
		rec.ExactMatch(), rec.ParentMatch(), rec.RecallAtK(), rec.Abstained(), rec.InCandidates(),
		string(rec.Outcome()), string(candidates), rec.RawOutput(), rec.Error(),
	)
	if err != nil {
		return fmt.Errorf("insert row %d of run %s: %w", seq, runID, err)
	}
	return nil
}

// FinishRun stores the summary and the finish time.
func (s *Store) FinishRun(ctx context.Context, runID string, sum evaluation.Summary, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE eval_runs SET
			finished_at = ?, samples = ?, exact_match = ?, parent_match = ?,
			recall_at_k = ?, abstain_rate = ?, parse_failures = ?, errors = ?
		WHERE id = ?`,
		finishedAt.UTC(), sum.Samples, sum.ExactMatch, sum.ParentMatch,
		sum.RecallAtK, sum.AbstainRate, sum.ParseFailures, sum.Errors, runID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, dataset, build_id, model, top_k, started_at, finished_at,
	samples, exact_match, parent_match, recall_at_k, abstain_rate, parse_failures, errors`

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (evaluation.Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM eval_runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return evaluation.Run{}, fmt.Errorf("get %s: %w", id, ErrRunNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]evaluation.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM eval_runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []evaluation.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// CountRows returns how many rows were stored for a run.
func (s *Store) CountRows(ctx context.Context, runID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM eval_rows WHERE run_id = ?", runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows of %s: %w", runID, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (evaluation.Run, error) {
	var r evaluation.Run
	var finished sql.NullTime
	err := sc.Scan(
		&r.ID, &r.Dataset, &r.BuildID, &r.Model, &r.K, &r.StartedAt, &finished,
		&r.Summary.Samples, &r.Summary.ExactMatch, &r.Summary.ParentMatch,
		&r.Summary.RecallAtK, &r.Summary.AbstainRate, &r.Summary.ParseFailures, &r.Summary.Errors,
	)
	if err != nil {
		return evaluation.Run{}, err //nolint:wrapcheck // callers add context
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	r.Summary.K = r.K
	return r, nil
}
