package db

import "database/sql"

func (r *Repository) CreateMaintenanceWindow(w *MaintenanceWindow, monitorIDs []int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.NamedQuery(`
		INSERT INTO maintenance_windows (title, message, starts_at, ends_at, created_at)
		VALUES (:title, :message, :starts_at, :ends_at, :created_at)
		RETURNING id`, w)
	if err != nil {
		return err
	}
	if rows.Next() {
		if err := rows.Scan(&w.ID); err != nil {
			rows.Close()
			return err
		}
	}
	rows.Close()

	for _, mid := range monitorIDs {
		if _, err := tx.Exec(`INSERT INTO maintenance_monitors (maintenance_window_id, monitor_id) VALUES ($1, $2)`, w.ID, mid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) GetMaintenanceWindow(id int64) (*MaintenanceWindow, error) {
	var w MaintenanceWindow
	err := r.db.Get(&w, `SELECT * FROM maintenance_windows WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &w, err
}

func (r *Repository) GetMaintenanceWindowMonitorIDs(id int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.Select(&ids, `SELECT monitor_id FROM maintenance_monitors WHERE maintenance_window_id = $1 ORDER BY monitor_id`, id)
	return ids, err
}

// UpdateMaintenanceWindow replaces a window's fields and its monitor links
// in one transaction.
func (r *Repository) UpdateMaintenanceWindow(w *MaintenanceWindow, monitorIDs []int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`
		UPDATE maintenance_windows SET title = :title, message = :message, starts_at = :starts_at, ends_at = :ends_at
		WHERE id = :id`, w)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM maintenance_monitors WHERE maintenance_window_id = $1`, w.ID); err != nil {
		return err
	}
	for _, mid := range monitorIDs {
		if _, err := tx.Exec(`INSERT INTO maintenance_monitors (maintenance_window_id, monitor_id) VALUES ($1, $2)`, w.ID, mid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) DeleteMaintenanceWindow(id int64) error {
	_, err := r.db.Exec(`DELETE FROM maintenance_windows WHERE id = $1`, id)
	return err
}

// ListMaintenanceWindowsOverlapping returns windows overlapping
// [rangeStart, rangeEnd), ordered by starts_at.
func (r *Repository) ListMaintenanceWindowsOverlapping(rangeStart, rangeEnd int64) ([]*MaintenanceWindow, error) {
	windows := []*MaintenanceWindow{}
	err := r.db.Select(&windows, `
		SELECT * FROM maintenance_windows
		WHERE starts_at < $2 AND ends_at > $1
		ORDER BY starts_at ASC`, rangeStart, rangeEnd)
	return windows, err
}

// ListActiveMaintenanceWindows returns windows covering "now", used by the
// status page to build the maintenance banner. The scheduler tick uses
// MonitorIDsUnderMaintenance instead.
func (r *Repository) ListActiveMaintenanceWindows(now int64) ([]*MaintenanceWindow, error) {
	windows := []*MaintenanceWindow{}
	err := r.db.Select(&windows, `
		SELECT * FROM maintenance_windows
		WHERE starts_at <= $1 AND ends_at > $1
		ORDER BY starts_at ASC`, now)
	return windows, err
}

// ListUpcomingMaintenanceWindows returns windows that haven't started yet,
// for the public status page's "scheduled" section.
func (r *Repository) ListUpcomingMaintenanceWindows(now int64, limit int) ([]*MaintenanceWindow, error) {
	windows := []*MaintenanceWindow{}
	err := r.db.Select(&windows, `
		SELECT * FROM maintenance_windows
		WHERE starts_at > $1
		ORDER BY starts_at ASC LIMIT $2`, now, limit)
	return windows, err
}

// MonitorIDsUnderMaintenance returns the set of monitor ids covered by any
// maintenance window active at now, across all windows in one query.
func (r *Repository) MonitorIDsUnderMaintenance(now int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.Select(&ids, `
		SELECT DISTINCT mm.monitor_id
		FROM maintenance_monitors mm
		JOIN maintenance_windows w ON w.id = mm.maintenance_window_id
		WHERE w.starts_at <= $1 AND w.ends_at > $1`, now)
	return ids, err
}
