// Package storage provides SQLite-based persistence for simulation runs.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rddlsim/go-rddlsim/results"
)

// Store handles SQLite database operations for run logging.
type Store struct {
	db *sql.DB
}

// Run represents one stored simulation run.
type Run struct {
	ID              string    `json:"id"`
	Domain          string    `json:"domain"`
	Instance        string    `json:"instance"`
	Policy          string    `json:"policy"`
	BatchSize       int       `json:"batch_size"`
	Horizon         int       `json:"horizon"`
	Discount        float64   `json:"discount"`
	Seed            int64     `json:"seed"`
	CreatedAt       time.Time `json:"created_at"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	MeanTotalReward float64   `json:"mean_total_reward"`
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		instance TEXT NOT NULL,
		policy TEXT NOT NULL,
		batch_size INTEGER NOT NULL,
		horizon INTEGER NOT NULL,
		discount REAL NOT NULL,
		seed INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		status TEXT NOT NULL,
		error TEXT,
		mean_total_reward REAL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS rewards (
		run_id TEXT NOT NULL,
		batch INTEGER NOT NULL,
		step INTEGER NOT NULL,
		reward REAL NOT NULL,
		PRIMARY KEY (run_id, batch, step),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain, instance);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_rewards_run ON rewards(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SaveRun persists a run record and its per-step rewards in one
// transaction.
func (s *Store) SaveRun(res *results.Results) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, domain, instance, policy, batch_size, horizon,
		 discount, seed, created_at, status, error, mean_total_reward)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Metadata.RunID, res.Model.Domain, res.Model.Instance,
		res.Metadata.Policy, res.Simulation.BatchSize, res.Simulation.Horizon,
		res.Simulation.Discount, res.Simulation.Seed,
		res.Metadata.Timestamp.UTC(), res.Metadata.Status, res.Metadata.Error,
		res.Results.Summary.MeanTotalReward,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO rewards (run_id, batch, step, reward) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rewards: %w", err)
	}
	defer stmt.Close()

	for b, row := range res.Results.Rewards {
		for t, v := range row {
			if _, err := stmt.Exec(res.Metadata.RunID, b, t, v); err != nil {
				return fmt.Errorf("insert reward: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run record by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, domain, instance, policy, batch_size, horizon, discount,
		 seed, created_at, status, error, mean_total_reward
		 FROM runs WHERE id = ?`, id,
	)

	var r Run
	var errText sql.NullString
	err := row.Scan(&r.ID, &r.Domain, &r.Instance, &r.Policy, &r.BatchSize,
		&r.Horizon, &r.Discount, &r.Seed, &r.CreatedAt, &r.Status, &errText,
		&r.MeanTotalReward)
	if err != nil {
		return nil, err
	}
	if errText.Valid {
		r.Error = errText.String
	}
	return &r, nil
}

// RecentRuns returns the most recent runs.
func (s *Store) RecentRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, domain, instance, policy, batch_size, horizon, discount,
		 seed, created_at, status, error, mean_total_reward
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var errText sql.NullString
		err := rows.Scan(&r.ID, &r.Domain, &r.Instance, &r.Policy, &r.BatchSize,
			&r.Horizon, &r.Discount, &r.Seed, &r.CreatedAt, &r.Status, &errText,
			&r.MeanTotalReward)
		if err != nil {
			return nil, err
		}
		if errText.Valid {
			r.Error = errText.String
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// GetRewards retrieves a run's rewards as a [batch][step] matrix.
func (s *Store) GetRewards(runID string) ([][]float64, error) {
	rows, err := s.db.Query(
		`SELECT batch, step, reward FROM rewards
		 WHERE run_id = ? ORDER BY batch, step`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]float64
	for rows.Next() {
		var batch, step int
		var reward float64
		if err := rows.Scan(&batch, &step, &reward); err != nil {
			return nil, err
		}
		for len(out) <= batch {
			out = append(out, nil)
		}
		if step != len(out[batch]) {
			return nil, fmt.Errorf("run %s: rewards for batch %d are not contiguous", runID, batch)
		}
		out[batch] = append(out[batch], reward)
	}
	return out, rows.Err()
}
