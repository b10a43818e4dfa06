package results

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

// PostgresStore records results in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database and creates the schema if needed
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS run_results (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		level_id TEXT NOT NULL,
		level_name TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		ticks INTEGER NOT NULL,
		turns INTEGER NOT NULL,
		rocks_left INTEGER NOT NULL,
		finished_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS run_results_finished_at ON run_results (finished_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or replaces a record
func (s *PostgresStore) Save(r *Record) error {
	query := `
	INSERT INTO run_results (id, session_id, level_id, level_name, status, reason, kind, ticks, turns, rocks_left, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id)
	DO UPDATE SET
		status = $5, reason = $6, kind = $7,
		ticks = $8, turns = $9, rocks_left = $10, finished_at = $11
	`

	_, err := s.db.Exec(query,
		r.ID, r.SessionID, r.LevelID, r.LevelName, string(r.Status),
		r.Reason, r.Kind, r.Ticks, r.Turns, r.RocksLeft, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, session_id, level_id, level_name, status, reason, kind, ticks, turns, rocks_left, finished_at FROM run_results`

// Get loads a record by ID
func (s *PostgresStore) Get(id string) (*Record, error) {
	row := s.db.QueryRow(selectColumns+` WHERE id = $1`, id)
	r, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	return r, nil
}

// List returns records newest first
func (s *PostgresStore) List(limit int) ([]*Record, error) {
	query := selectColumns + ` ORDER BY finished_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	log.Info("Closing results database connection")
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var status string
	err := row.Scan(
		&r.ID, &r.SessionID, &r.LevelID, &r.LevelName, &status,
		&r.Reason, &r.Kind, &r.Ticks, &r.Turns, &r.RocksLeft, &r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = engine.Status(status)
	return &r, nil
}
