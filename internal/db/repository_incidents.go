package db

import "database/sql"

func (r *Repository) CreateIncident(inc *Incident, monitorIDs []int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.NamedQuery(`
		INSERT INTO incidents (title, status, impact, message, started_at, resolved_at)
		VALUES (:title, :status, :impact, :message, :started_at, :resolved_at)
		RETURNING id`, inc)
	if err != nil {
		return err
	}
	if rows.Next() {
		if err := rows.Scan(&inc.ID); err != nil {
			rows.Close()
			return err
		}
	}
	rows.Close()

	for _, mid := range monitorIDs {
		if _, err := tx.Exec(`INSERT INTO incident_monitors (incident_id, monitor_id) VALUES ($1, $2)`, inc.ID, mid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) GetIncident(id int64) (*Incident, error) {
	var inc Incident
	err := r.db.Get(&inc, `SELECT * FROM incidents WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &inc, err
}

func (r *Repository) GetIncidentMonitorIDs(incidentID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.Select(&ids, `SELECT monitor_id FROM incident_monitors WHERE incident_id = $1 ORDER BY monitor_id`, incidentID)
	return ids, err
}

// ListIncidents returns unresolved incidents first (newest started first),
// then resolved incidents by id DESC.
func (r *Repository) ListIncidents(resolvedOnly bool, beforeID int64, limit int) ([]*Incident, error) {
	incidents := []*Incident{}
	var query string
	if resolvedOnly {
		query = `
			SELECT * FROM incidents
			WHERE resolved_at IS NOT NULL AND ($1 = 0 OR id < $1)
			ORDER BY id DESC LIMIT $2`
	} else {
		query = `
			SELECT * FROM incidents
			WHERE ($1 = 0 OR id < $1)
			ORDER BY (resolved_at IS NOT NULL),
				CASE WHEN resolved_at IS NULL THEN started_at END DESC, id DESC
			LIMIT $2`
	}
	err := r.db.Select(&incidents, query, beforeID, limit)
	return incidents, err
}

// ListActiveIncidents returns up to limit unresolved incidents, newest
// started first.
func (r *Repository) ListActiveIncidents(limit int) ([]*Incident, error) {
	incidents := []*Incident{}
	err := r.db.Select(&incidents, `
		SELECT * FROM incidents WHERE resolved_at IS NULL
		ORDER BY started_at DESC LIMIT $1`, limit)
	return incidents, err
}

func (r *Repository) UpdateIncidentStatus(id int64, status IncidentStatus, resolvedAt *int64) error {
	_, err := r.db.Exec(`UPDATE incidents SET status = $2, resolved_at = $3 WHERE id = $1`, id, status, resolvedAt)
	return err
}

func (r *Repository) DeleteIncident(id int64) error {
	_, err := r.db.Exec(`DELETE FROM incidents WHERE id = $1`, id)
	return err
}

func (r *Repository) CreateIncidentUpdate(u *IncidentUpdate) error {
	return r.db.Get(&u.ID, `
		INSERT INTO incident_updates (incident_id, status, message, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		u.IncidentID, u.Status, u.Message, u.CreatedAt)
}

func (r *Repository) ListIncidentUpdates(incidentID int64) ([]*IncidentUpdate, error) {
	updates := []*IncidentUpdate{}
	err := r.db.Select(&updates, `SELECT * FROM incident_updates WHERE incident_id = $1 ORDER BY created_at ASC`, incidentID)
	return updates, err
}
