package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

// SQLiteStore is the persistent RunStore. Specs, environment fingerprints
// and aggregated metrics are stored as JSON blobs; the run lifecycle columns
// are first-class so listings never deserialize metrics.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the run database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to run database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS benchmark_specs (
		id TEXT PRIMARY KEY,
		spec_hash TEXT NOT NULL,
		spec_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS benchmark_runs (
		run_id TEXT PRIMARY KEY,
		spec_id TEXT NOT NULL,
		request_id TEXT,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		started_at INTEGER,
		finished_at INTEGER,
		spec_hash TEXT NOT NULL,
		env_fingerprint_json TEXT NOT NULL,
		aggregated_json TEXT,
		FOREIGN KEY(spec_id) REFERENCES benchmark_specs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_benchmark_runs_created
		ON benchmark_runs(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize run schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateRun(detail *RunDetail) error {
	specJSON, err := json.Marshal(detail.Spec)
	if err != nil {
		return fmt.Errorf("failed to serialize spec: %w", err)
	}
	envJSON, err := json.Marshal(detail.Environment)
	if err != nil {
		return fmt.Errorf("failed to serialize environment fingerprint: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO benchmark_specs (id, spec_hash, spec_json, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET spec_hash=excluded.spec_hash, spec_json=excluded.spec_json`,
		detail.Run.SpecID, detail.Run.SpecHash, string(specJSON), detail.Run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert benchmark spec: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO benchmark_runs (run_id, spec_id, request_id, status, created_at, started_at, finished_at, spec_hash, env_fingerprint_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		detail.Run.RunID, detail.Run.SpecID, nullableString(detail.Run.RequestID),
		string(detail.Run.Status), detail.Run.CreatedAt,
		nullableInt(detail.Run.StartedAt), nullableInt(detail.Run.FinishedAt),
		detail.Run.SpecHash, string(envJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert benchmark run: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) UpdateRunStatus(runID string, status RunStatus, startedAt, finishedAt int64) error {
	result, err := s.db.Exec(
		`UPDATE benchmark_runs
		 SET status = ?,
		     started_at = COALESCE(NULLIF(?, 0), started_at),
		     finished_at = COALESCE(NULLIF(?, 0), finished_at)
		 WHERE run_id = ?`,
		string(status), startedAt, finishedAt, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update benchmark run: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) AttachMetrics(runID string, aggregated *metrics.AggregatedMetrics) error {
	aggregatedJSON, err := json.Marshal(aggregated)
	if err != nil {
		return fmt.Errorf("failed to serialize metrics: %w", err)
	}
	result, err := s.db.Exec(
		`UPDATE benchmark_runs SET aggregated_json = ? WHERE run_id = ?`,
		string(aggregatedJSON), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to store benchmark metrics: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) GetRun(runID string) (*RunDetail, error) {
	row := s.db.QueryRow(
		`SELECT r.run_id, r.spec_id, r.request_id, r.status, r.created_at,
		        r.started_at, r.finished_at, r.spec_hash,
		        r.env_fingerprint_json, r.aggregated_json, s.spec_json
		 FROM benchmark_runs r
		 JOIN benchmark_specs s ON s.id = r.spec_id
		 WHERE r.run_id = ?`,
		runID,
	)

	var detail RunDetail
	var requestID sql.NullString
	var startedAt, finishedAt sql.NullInt64
	var status, envJSON, specJSON string
	var aggregatedJSON sql.NullString

	err := row.Scan(
		&detail.Run.RunID, &detail.Run.SpecID, &requestID, &status,
		&detail.Run.CreatedAt, &startedAt, &finishedAt, &detail.Run.SpecHash,
		&envJSON, &aggregatedJSON, &specJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark run: %w", err)
	}

	detail.Run.RequestID = requestID.String
	detail.Run.Status = RunStatus(status)
	detail.Run.StartedAt = startedAt.Int64
	detail.Run.FinishedAt = finishedAt.Int64

	if err := json.Unmarshal([]byte(specJSON), &detail.Spec); err != nil {
		return nil, fmt.Errorf("failed to parse stored spec: %w", err)
	}
	if err := json.Unmarshal([]byte(envJSON), &detail.Environment); err != nil {
		return nil, fmt.Errorf("failed to parse stored environment fingerprint: %w", err)
	}
	if aggregatedJSON.Valid {
		var aggregated metrics.AggregatedMetrics
		if err := json.Unmarshal([]byte(aggregatedJSON.String), &aggregated); err != nil {
			return nil, fmt.Errorf("failed to parse stored metrics: %w", err)
		}
		detail.Metrics = &aggregated
	}

	return &detail, nil
}

func (s *SQLiteStore) ListRuns(limit int) ([]RunSummary, error) {
	query := `SELECT run_id, spec_id, request_id, status, created_at, started_at, finished_at, spec_hash
	          FROM benchmark_runs ORDER BY created_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var summary RunSummary
		var requestID sql.NullString
		var startedAt, finishedAt sql.NullInt64
		var status string
		if err := rows.Scan(
			&summary.RunID, &summary.SpecID, &requestID, &status,
			&summary.CreatedAt, &startedAt, &finishedAt, &summary.SpecHash,
		); err != nil {
			return nil, fmt.Errorf("failed to read benchmark run: %w", err)
		}
		summary.RequestID = requestID.String
		summary.Status = RunStatus(status)
		summary.StartedAt = startedAt.Int64
		summary.FinishedAt = finishedAt.Int64
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) DeleteRun(runID string) error {
	result, err := s.db.Exec(`DELETE FROM benchmark_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete benchmark run: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
