package db

import "database/sql"

// UpsertDailyRollup writes or overwrites the rollup row for (monitor_id,
// day_start_at), letting a re-run of the daily job recompute a day safely.
func (r *Repository) UpsertDailyRollup(rollup *MonitorDailyRollup) error {
	_, err := r.db.NamedExec(`
		INSERT INTO monitor_daily_rollups (
			monitor_id, day_start_at, total_sec, downtime_sec, unknown_sec, uptime_sec,
			checks_total, checks_up, checks_down, checks_unknown, checks_maintenance,
			avg_latency_ms, p50, p95, latency_histogram_json
		) VALUES (
			:monitor_id, :day_start_at, :total_sec, :downtime_sec, :unknown_sec, :uptime_sec,
			:checks_total, :checks_up, :checks_down, :checks_unknown, :checks_maintenance,
			:avg_latency_ms, :p50, :p95, :latency_histogram_json
		)
		ON CONFLICT (monitor_id, day_start_at) DO UPDATE SET
			total_sec = EXCLUDED.total_sec,
			downtime_sec = EXCLUDED.downtime_sec,
			unknown_sec = EXCLUDED.unknown_sec,
			uptime_sec = EXCLUDED.uptime_sec,
			checks_total = EXCLUDED.checks_total,
			checks_up = EXCLUDED.checks_up,
			checks_down = EXCLUDED.checks_down,
			checks_unknown = EXCLUDED.checks_unknown,
			checks_maintenance = EXCLUDED.checks_maintenance,
			avg_latency_ms = EXCLUDED.avg_latency_ms,
			p50 = EXCLUDED.p50,
			p95 = EXCLUDED.p95,
			latency_histogram_json = EXCLUDED.latency_histogram_json`,
		rollup)
	return err
}

func (r *Repository) GetDailyRollup(monitorID, dayStartAt int64) (*MonitorDailyRollup, error) {
	var rollup MonitorDailyRollup
	err := r.db.Get(&rollup, `
		SELECT * FROM monitor_daily_rollups WHERE monitor_id = $1 AND day_start_at = $2`,
		monitorID, dayStartAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &rollup, err
}

// GetDailyRollupsFrom returns rollup rows for monitorID covering
// [fromDay, toDay), ascending by day, used by the 7/30/90d analytics
// endpoints.
func (r *Repository) GetDailyRollupsFrom(monitorID, fromDay, toDay int64) ([]*MonitorDailyRollup, error) {
	rollups := []*MonitorDailyRollup{}
	err := r.db.Select(&rollups, `
		SELECT * FROM monitor_daily_rollups
		WHERE monitor_id = $1 AND day_start_at >= $2 AND day_start_at < $3
		ORDER BY day_start_at ASC`, monitorID, fromDay, toDay)
	return rollups, err
}

// ListRollupMonitorIDs returns every monitor id, including inactive
// monitors, so the daily job can still roll up a day for a
// monitor that existed before it ended even if it's since been paused.
func (r *Repository) ListRollupMonitorIDs() ([]int64, error) {
	ids := []int64{}
	err := r.db.Select(&ids, `SELECT id FROM monitors ORDER BY id ASC`)
	return ids, err
}
