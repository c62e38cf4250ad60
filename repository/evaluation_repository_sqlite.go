package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"underwriting-agent/domain"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// the evaluations table exists. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			borrower_name TEXT NOT NULL,
			decision TEXT NOT NULL,
			record_json TEXT NOT NULL,
			evaluation_json TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_decision ON evaluations(decision)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// EvaluationRepositorySQLite persists evaluations to SQLite.
type EvaluationRepositorySQLite struct {
	db *sql.DB
}

func NewEvaluationRepositorySQLite(db *sql.DB) *EvaluationRepositorySQLite {
	return &EvaluationRepositorySQLite{db: db}
}

// Save stores the record and the full evaluation as JSON alongside the
// columns the dashboard filters on.
func (r *EvaluationRepositorySQLite) Save(
	record domain.BorrowerRecord,
	eval domain.Evaluation,
) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	evalJSON, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO evaluations
		(id, borrower_name, decision, record_json, evaluation_json, created_at)
		VALUES (?,?,?,?,?,?)`,
		eval.ApplicationID, record.Name, string(eval.Decision.Status),
		string(recordJSON), string(evalJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// FindByID returns the stored evaluation for the application, if any.
func (r *EvaluationRepositorySQLite) FindByID(id string) (domain.Evaluation, bool, error) {
	var evalJSON string
	err := r.db.QueryRow(
		`SELECT evaluation_json FROM evaluations WHERE id = ?`, id,
	).Scan(&evalJSON)
	if err == sql.ErrNoRows {
		return domain.Evaluation{}, false, nil
	}
	if err != nil {
		return domain.Evaluation{}, false, fmt.Errorf("query evaluation: %w", err)
	}

	var eval domain.Evaluation
	if err := json.Unmarshal([]byte(evalJSON), &eval); err != nil {
		return domain.Evaluation{}, false, fmt.Errorf("unmarshal evaluation: %w", err)
	}
	return eval, true, nil
}
