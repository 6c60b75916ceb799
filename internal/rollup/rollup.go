// Package rollup implements the daily rollup job: for each monitor
// existing before the day ends, it merges outage and unknown coverage
// with the interval algebra, counts checks by status, computes latency
// statistics over up-checks, and upserts one MonitorDailyRollup row per
// monitor in batches of 50.
package rollup

import (
	"strconv"
	"time"

	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/intervals"
	"github.com/leozw/uptime-guardian/internal/lock"
	"github.com/leozw/uptime-guardian/internal/metrics"
	"github.com/leozw/uptime-guardian/internal/timeutil"
	"go.uber.org/zap"
)

const (
	lockPrefix   = "analytics:daily-rollup:"
	lockLeaseSec = 600
	flushBatch   = 50
)

type Runner struct {
	repo    *db.Repository
	leaser  *lock.Leaser
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewRunner(repo *db.Repository, m *metrics.Collector, logger *zap.Logger) *Runner {
	return &Runner{repo: repo, leaser: lock.NewLeaser(repo), metrics: m, logger: logger}
}

// Run computes the rollup for the previous UTC day relative to now.
func (r *Runner) Run(now int64) {
	start := time.Now()
	dayStart, dayEnd := timeutil.PreviousDay(now)
	lockName := lockPrefix + strconv.FormatInt(dayStart, 10)

	acquired, err := r.leaser.Acquire(lockName, now, lockLeaseSec)
	if err != nil {
		r.logger.Error("failed to acquire rollup lease", zap.Error(err))
		return
	}
	if !acquired {
		r.metrics.RecordRollupSkipped()
		return
	}
	defer func() { r.metrics.RecordRollup(time.Since(start).Seconds()) }()

	monitors, err := r.repo.ListRollupMonitorIDs()
	if err != nil {
		r.logger.Error("failed to list monitors for rollup", zap.Error(err))
		return
	}

	pending := make([]*db.MonitorDailyRollup, 0, flushBatch)
	for _, id := range monitors {
		m, err := r.repo.GetMonitor(id)
		if err != nil {
			r.logger.Error("failed to load monitor for rollup", zap.Int64("monitor_id", id), zap.Error(err))
			continue
		}
		row, ok, err := r.computeDay(m, dayStart, dayEnd)
		if err != nil {
			r.logger.Error("failed to compute rollup", zap.Int64("monitor_id", id), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		pending = append(pending, row)
		if len(pending) >= flushBatch {
			r.flush(pending)
			pending = pending[:0]
		}
	}
	r.flush(pending)
}

func (r *Runner) flush(rows []*db.MonitorDailyRollup) {
	for _, row := range rows {
		if err := r.repo.UpsertDailyRollup(row); err != nil {
			r.logger.Error("failed to upsert rollup", zap.Int64("monitor_id", row.MonitorID), zap.Error(err))
		}
	}
}

// computeDay computes one day's rollup row for a single monitor. ok is
// false if the range was empty (monitor created after the day ended).
func (r *Runner) computeDay(m *db.Monitor, dayStart, dayEnd int64) (*db.MonitorDailyRollup, bool, error) {
	rangeStart := maxInt64(dayStart, m.CreatedAt)
	rangeEnd := dayEnd
	if rangeStart >= rangeEnd {
		return nil, false, nil
	}

	outages, err := r.repo.GetOutagesOverlapping(m.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, false, err
	}
	raw := make([]intervals.Interval, 0, len(outages))
	for _, o := range outages {
		end := rangeEnd
		if o.EndedAt != nil {
			end = *o.EndedAt
		}
		raw = append(raw, intervals.Interval{Start: o.StartedAt, End: end})
	}
	downtime := intervals.Merge(intervals.ClipAll(raw, intervals.Interval{Start: rangeStart, End: rangeEnd}))
	downtimeSec := intervals.Sum(downtime)

	// Fetch checks from 2 intervals before rangeStart to seed pre-range
	// coverage for BuildUnknown.
	lookback := rangeStart - 2*int64(m.IntervalSec)
	checkRows, err := r.repo.GetCheckResultsFrom(m.ID, lookback, rangeEnd)
	if err != nil {
		return nil, false, err
	}
	checks := make([]intervals.Check, 0, len(checkRows))
	for _, c := range checkRows {
		checks = append(checks, intervals.Check{CheckedAt: c.CheckedAt, Unknown: c.Status == db.StatusUnknown})
	}
	unknown := intervals.BuildUnknown(rangeStart, rangeEnd, int64(m.IntervalSec), checks)
	unknownSec := maxInt64(0, intervals.Sum(unknown)-intervals.Overlap(unknown, downtime))

	totalSec := rangeEnd - rangeStart
	unavailableSec := minInt64(totalSec, downtimeSec+unknownSec)
	uptimeSec := totalSec - unavailableSec

	inRangeChecks, err := r.repo.GetCheckResultsFrom(m.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, false, err
	}

	row := &db.MonitorDailyRollup{
		MonitorID:   m.ID,
		DayStartAt:  dayStart,
		TotalSec:    totalSec,
		DowntimeSec: downtimeSec,
		UnknownSec:  unknownSec,
		UptimeSec:   uptimeSec,
	}

	var upLatencies []int64
	for _, c := range inRangeChecks {
		row.ChecksTotal++
		switch c.Status {
		case db.StatusUp:
			row.ChecksUp++
			if c.LatencyMs != nil {
				upLatencies = append(upLatencies, *c.LatencyMs)
			}
		case db.StatusDown:
			row.ChecksDown++
		case db.StatusUnknown:
			row.ChecksUnknown++
		case db.StatusMaintenance:
			row.ChecksMaintenance++
		}
	}

	if len(upLatencies) > 0 {
		sortInt64s(upLatencies)
		sum := int64(0)
		for _, v := range upLatencies {
			sum += v
		}
		avg := (sum + int64(len(upLatencies))/2) / int64(len(upLatencies))
		p50 := NearestRank(upLatencies, 50)
		p95 := NearestRank(upLatencies, 95)
		row.AvgLatencyMs = &avg
		row.P50 = &p50
		row.P95 = &p95
		row.LatencyHistogram = db.IntSlice(BuildHistogram(upLatencies))
	} else {
		row.LatencyHistogram = db.IntSlice(make([]int, len(LatencyBucketsMs)+1))
	}

	return row, true, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
