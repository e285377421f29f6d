// Package persistence provides SQLite-based checkpoint storage for
// streamline runs, suitable for replay and offline analysis.
package persistence

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sroyc/windtrace/internal/streamline"
)

// DB wraps a SQLite connection holding runs and their per-step traces.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		r_0 REAL NOT NULL,
		z_0 REAL NOT NULL,
		rho_0 REAL NOT NULL,
		v_z_0 REAL NOT NULL,
		force_model TEXT NOT NULL,
		status TEXT NOT NULL,
		escaped INTEGER NOT NULL,
		steps INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		t REAL NOT NULL,
		r REAL NOT NULL,
		z REAL NOT NULL,
		v_r REAL NOT NULL,
		v_z REAL NOT NULL,
		v_t REAL NOT NULL,
		rho REAL NOT NULL,
		tau_dr REAL NOT NULL,
		tau_uv REAL NOT NULL,
		tau_x REAL NOT NULL,
		tau_eff REAL NOT NULL,
		xi REAL NOT NULL,
		fm REAL NOT NULL,
		dv_dr REAL NOT NULL,
		a_r REAL NOT NULL,
		a_z REAL NOT NULL,
		v_esc REAL NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_steps_run ON steps(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRecord is the stored summary of one run.
type RunRecord struct {
	ID         string  `db:"id"`
	StartedAt  int64   `db:"started_at"`
	R0         float64 `db:"r_0"`
	Z0         float64 `db:"z_0"`
	Rho0       float64 `db:"rho_0"`
	VZ0        float64 `db:"v_z_0"`
	ForceModel string  `db:"force_model"`
	Status     string  `db:"status"`
	Escaped    bool    `db:"escaped"`
	Steps      int     `db:"steps"`
}

// SaveRun writes a run summary and its full trace in one transaction.
func (db *DB) SaveRun(id string, cfg streamline.Config, status streamline.Status, escaped bool, hist *streamline.History) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, started_at, r_0, z_0, rho_0, v_z_0, force_model, status, escaped, steps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().Unix(), cfg.R0, cfg.Z0, cfg.Rho0, cfg.VZ0,
		cfg.ForceModel.String(), status.String(), escaped, hist.Len())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO steps
		(run_id, idx, t, r, z, v_r, v_z, v_t, rho, tau_dr, tau_uv, tau_x,
		 tau_eff, xi, fm, dv_dr, a_r, a_z, v_esc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < hist.Len(); i++ {
		row := hist.Row(i)
		args := make([]any, 0, len(row)+2)
		args = append(args, id, i)
		for _, v := range row {
			args = append(args, v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert step %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns all stored run summaries, newest first.
func (db *DB) ListRuns() ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.Select(&runs, `SELECT * FROM runs ORDER BY started_at DESC`)
	return runs, err
}

// LoadRun returns one run summary.
func (db *DB) LoadRun(id string) (*RunRecord, error) {
	var run RunRecord
	if err := db.conn.Get(&run, `SELECT * FROM runs WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// LoadSteps reconstructs a run's full history from its stored trace.
func (db *DB) LoadSteps(id string) (*streamline.History, error) {
	rows, err := db.conn.Query(`SELECT t, r, z, v_r, v_z, v_t, rho, tau_dr,
		tau_uv, tau_x, tau_eff, xi, fm, dv_dr, a_r, a_z, v_esc
		FROM steps WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hist := &streamline.History{}
	row := make([]float64, len(streamline.Columns()))
	dest := make([]any, len(row))
	for i := range row {
		dest[i] = &row[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		hist.AppendRow(row)
	}
	return hist, rows.Err()
}
