package db

import (
	"database/sql"

	"github.com/lib/pq"
)

// GetMonitorState fetches the single live-state row for a monitor, or nil
// if the monitor has never been checked.
func (r *Repository) GetMonitorState(monitorID int64) (*MonitorState, error) {
	var s MonitorState
	err := r.db.Get(&s, `SELECT * FROM monitor_states WHERE monitor_id = $1`, monitorID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &s, err
}

// CheckBatch bundles one completed check's writes into a single
// transaction: the new CheckResult, the upserted MonitorState, and the
// outage action. The batch is safe to re-run with the same
// (monitor_id, checked_at, outcome) —
// the outage-open insert is guarded by "NOT EXISTS an ongoing outage" so a
// duplicate tick can't open a second one.
type CheckBatch struct {
	Check CheckResult
	State MonitorState
	OutageAction string // "open", "close", "update", "none"
	ErrorForOpen *string
	ErrorUpdate *string
}

func (r *Repository) PersistCheckBatch(b CheckBatch) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`
		INSERT INTO check_results (monitor_id, checked_at, status, latency_ms, http_status, error, attempt, location)
		VALUES (:monitor_id, :checked_at, :status, :latency_ms, :http_status, :error, :attempt, :location)`,
		&b.Check)
	if err != nil {
		return err
	}

	_, err = tx.NamedExec(`
		INSERT INTO monitor_states (
			monitor_id, status, last_checked_at, last_changed_at, last_latency_ms,
			last_error, consecutive_failures, consecutive_successes
		) VALUES (
			:monitor_id, :status, :last_checked_at, :last_changed_at, :last_latency_ms,
			:last_error, :consecutive_failures, :consecutive_successes
		)
		ON CONFLICT (monitor_id) DO UPDATE SET
			status = EXCLUDED.status,
			last_checked_at = EXCLUDED.last_checked_at,
			last_changed_at = EXCLUDED.last_changed_at,
			last_latency_ms = EXCLUDED.last_latency_ms,
			last_error = EXCLUDED.last_error,
			consecutive_failures = EXCLUDED.consecutive_failures,
			consecutive_successes = EXCLUDED.consecutive_successes`,
		&b.State)
	if err != nil {
		return err
	}

	switch b.OutageAction {
	case "open":
		_, err = tx.Exec(`
			INSERT INTO outages (monitor_id, started_at, initial_error, last_error)
			SELECT $1, $2, $3, $3
			WHERE NOT EXISTS (SELECT 1 FROM outages WHERE monitor_id = $1 AND ended_at IS NULL)`,
			b.State.MonitorID, b.Check.CheckedAt, b.ErrorForOpen)
	case "close":
		_, err = tx.Exec(`
			UPDATE outages SET ended_at = $2
			WHERE monitor_id = $1 AND ended_at IS NULL`,
			b.State.MonitorID, b.Check.CheckedAt)
	case "update":
		_, err = tx.Exec(`
			UPDATE outages SET last_error = $2
			WHERE monitor_id = $1 AND ended_at IS NULL`,
			b.State.MonitorID, b.ErrorUpdate)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetOutagesOverlapping returns outages for monitorID that overlap
// [rangeStart, rangeEnd), including the ongoing one if it started before
// rangeEnd.
func (r *Repository) GetOutagesOverlapping(monitorID, rangeStart, rangeEnd int64) ([]*Outage, error) {
	outages := []*Outage{}
	query := `
		SELECT * FROM outages
		WHERE monitor_id = $1
		AND started_at < $3
		AND (ended_at IS NULL OR ended_at > $2)
		ORDER BY started_at ASC`
	err := r.db.Select(&outages, query, monitorID, rangeStart, rangeEnd)
	return outages, err
}

// ListOutages is the keyset-paginated outage listing.
func (r *Repository) ListOutages(monitorID int64, rangeStart, rangeEnd int64, beforeID int64, limit int) ([]*Outage, error) {
	outages := []*Outage{}
	query := `
		SELECT * FROM outages
		WHERE monitor_id = $1
		AND started_at < $3
		AND (ended_at IS NULL OR ended_at > $2)
		AND ($4 = 0 OR id < $4)
		ORDER BY id DESC
		LIMIT $5`
	err := r.db.Select(&outages, query, monitorID, rangeStart, rangeEnd, beforeID, limit)
	return outages, err
}

// GetCheckResultsFrom returns checks at or after fromAt, ascending by time,
// used to build unknown coverage.
func (r *Repository) GetCheckResultsFrom(monitorID, fromAt, toAt int64) ([]*CheckResult, error) {
	checks := []*CheckResult{}
	query := `
		SELECT * FROM check_results
		WHERE monitor_id = $1 AND checked_at >= $2 AND checked_at < $3
		ORDER BY checked_at ASC`
	err := r.db.Select(&checks, query, monitorID, fromAt, toAt)
	return checks, err
}

// GetLatestCheckBefore returns the most recent check at or before at, or
// nil when there is none.
func (r *Repository) GetLatestCheckBefore(monitorID, at int64) (*CheckResult, error) {
	var c CheckResult
	err := r.db.Get(&c, `
		SELECT * FROM check_results
		WHERE monitor_id = $1 AND checked_at <= $2
		ORDER BY checked_at DESC LIMIT 1`, monitorID, at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &c, err
}

// GetHeartbeats returns up to limit of the most recent checks within the
// lookback window, in chronological order.
func (r *Repository) GetHeartbeats(monitorID, lookbackFrom int64, limit int) ([]*CheckResult, error) {
	checks := []*CheckResult{}
	query := `
		SELECT * FROM (
			SELECT * FROM check_results
			WHERE monitor_id = $1 AND checked_at >= $2
			ORDER BY checked_at DESC
			LIMIT $3
		) recent ORDER BY checked_at ASC`
	err := r.db.Select(&checks, query, monitorID, lookbackFrom, limit)
	return checks, err
}

// heartbeatRow adds the partition rank column used to cap each monitor's
// heartbeats independently within a single query.
type heartbeatRow struct {
	CheckResult
	Rnk int `db:"rnk"`
}

// GetHeartbeatsBatch fetches up to limit heartbeats per monitor in
// monitorIDs within the lookback window, using a window function
// partitioned by monitor_id, and returns them grouped by monitor id in
// chronological order.
func (r *Repository) GetHeartbeatsBatch(monitorIDs []int64, lookbackFrom int64, limit int) (map[int64][]*CheckResult, error) {
	out := make(map[int64][]*CheckResult, len(monitorIDs))
	if len(monitorIDs) == 0 {
		return out, nil
	}
	rows := []heartbeatRow{}
	query := `
		SELECT * FROM (
			SELECT c.*, ROW_NUMBER() OVER (PARTITION BY monitor_id ORDER BY checked_at DESC) AS rnk
			FROM check_results c
			WHERE monitor_id = ANY($1) AND checked_at >= $2
		) ranked WHERE rnk <= $3
		ORDER BY monitor_id, checked_at DESC`
	err := r.db.Select(&rows, query, pq.Array(monitorIDs), lookbackFrom, limit)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		cr := rows[i].CheckResult
		out[cr.MonitorID] = append(out[cr.MonitorID], &cr)
	}
	for id := range out {
		list := out[id]
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	return out, nil
}
