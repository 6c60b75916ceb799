package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Repository wraps a sqlx connection pool with the hand-written SQL calls
// every component needs: no query builder, no ORM, one method per
// operation.
type Repository struct {
	db *sqlx.DB
}

// NewConnection opens a Postgres pool sized by the caller's limits.
func NewConnection(databaseURL string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return conn, nil
}

// NewRepository constructs a Repository over an existing pool.
func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{db: conn}
}

// DB exposes the underlying *sql.DB.
func (r *Repository) DB() *sql.DB {
	return r.db.DB
}

// Ping checks the database connection is alive.
func (r *Repository) Ping() error {
	return r.db.Ping()
}

var ErrNotFound = fmt.Errorf("not found")

// Monitor CRUD

func (r *Repository) CreateMonitor(m *Monitor) error {
	query := `
		INSERT INTO monitors (
			name, type, target, interval_sec, timeout_ms, is_active,
			created_at, updated_at, http_method, http_headers, http_body,
			expected_status, response_keyword, response_forbidden_keyword
		) VALUES (
			:name, :type, :target, :interval_sec, :timeout_ms, :is_active,
			:created_at, :updated_at, :http_method, :http_headers, :http_body,
			:expected_status, :response_keyword, :response_forbidden_keyword
		) RETURNING id`
	rows, err := r.db.NamedQuery(query, m)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&m.ID)
	}
	return rows.Err()
}

func (r *Repository) GetMonitor(id int64) (*Monitor, error) {
	var m Monitor
	err := r.db.Get(&m, `SELECT * FROM monitors WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *Repository) ListMonitors(limit, offset int) ([]*Monitor, error) {
	monitors := []*Monitor{}
	err := r.db.Select(&monitors, `SELECT * FROM monitors ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset)
	return monitors, err
}

func (r *Repository) ListActiveMonitors() ([]*Monitor, error) {
	monitors := []*Monitor{}
	err := r.db.Select(&monitors, `SELECT * FROM monitors WHERE is_active = true ORDER BY id ASC`)
	return monitors, err
}

func (r *Repository) UpdateMonitor(m *Monitor) error {
	query := `
		UPDATE monitors SET
			name = :name, type = :type, target = :target,
			interval_sec = :interval_sec, timeout_ms = :timeout_ms, is_active = :is_active,
			updated_at = :updated_at, http_method = :http_method, http_headers = :http_headers,
			http_body = :http_body, expected_status = :expected_status,
			response_keyword = :response_keyword, response_forbidden_keyword = :response_forbidden_keyword
		WHERE id = :id`
	_, err := r.db.NamedExec(query, m)
	return err
}

// DeleteMonitor removes a monitor and cascades to MonitorState, CheckResult,
// Outage, and rollups via foreign-key ON DELETE CASCADE. Incident and
// maintenance links are NOT foreign keys to monitors on purpose: historical
// incidents and maintenance windows must keep referencing the id even after
// the monitor is gone.
func (r *Repository) DeleteMonitor(id int64) error {
	_, err := r.db.Exec(`DELETE FROM monitors WHERE id = $1`, id)
	return err
}

// SetMonitorPaused upserts monitor_states.status to "paused" or, on resume,
// back to "unknown" so the scheduler re-derives the real status from the
// next check rather than trusting a stale one.
func (r *Repository) SetMonitorPaused(monitorID int64, paused bool) error {
	status := StatusUnknown
	if paused {
		status = StatusPaused
	}
	_, err := r.db.Exec(`
		INSERT INTO monitor_states (monitor_id, status, consecutive_failures, consecutive_successes)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (monitor_id) DO UPDATE SET status = EXCLUDED.status`,
		monitorID, status)
	return err
}

// SelectDueMonitors returns active, non-paused monitors whose interval has
// elapsed.
func (r *Repository) SelectDueMonitors(checkedAt int64) ([]*Monitor, error) {
	monitors := []*Monitor{}
	query := `
		SELECT m.* FROM monitors m
		LEFT JOIN monitor_states s ON s.monitor_id = m.id
		WHERE m.is_active = true
			AND (s.status IS NULL OR s.status != 'paused')
			AND (s.last_checked_at IS NULL OR s.last_checked_at <= $1 - m.interval_sec)
		ORDER BY m.id ASC`
	err := r.db.Select(&monitors, query, checkedAt)
	return monitors, err
}
