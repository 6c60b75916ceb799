package analytics

import (
	"sort"

	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/intervals"
	"github.com/leozw/uptime-guardian/internal/rollup"
	"github.com/leozw/uptime-guardian/internal/timeutil"
)

// MonitorStats is the per-monitor analytics shape, shared between the live
// 24h path and the rollup-backed 7d/30d/90d path.
type MonitorStats struct {
	MonitorID    int64   `json:"monitor_id"`
	RangeToken   string  `json:"range"`
	TotalSec     int64   `json:"total_sec"`
	DowntimeSec  int64   `json:"downtime_sec"`
	UnknownSec   int64   `json:"unknown_sec"`
	UptimeSec    int64   `json:"uptime_sec"`
	UptimePct    float64 `json:"uptime_pct"`
	ChecksTotal  int     `json:"checks_total"`
	AvgLatencyMs *int64  `json:"avg_latency_ms,omitempty"`
	P50LatencyMs *int64  `json:"p50_latency_ms,omitempty"`
	P95LatencyMs *int64  `json:"p95_latency_ms,omitempty"`
	MissingDays  int     `json:"missing_days,omitempty"`
}

// MonitorStats computes per-monitor analytics for rangeToken in
// {"24h","7d","30d","90d"}. 24h is computed live from raw checks; longer
// ranges read from daily rollups, treating missing days as fully unknown.
func (s *Service) MonitorStats(now int64, monitorID int64, rangeToken string) (*MonitorStats, error) {
	m, err := s.repo.GetMonitor(monitorID)
	if err != nil {
		return nil, err
	}
	if rangeToken == "24h" {
		return s.liveStats(now, m)
	}

	durSec, ok := timeutil.RangeSeconds(rangeToken)
	if !ok {
		return nil, errInvalidRange(rangeToken)
	}
	return s.rollupStats(now, m, rangeToken, durSec)
}

// liveStats implements the 24h path by computing directly over raw checks
// and outages, matching the overview's live computation.
func (s *Service) liveStats(now int64, m *db.Monitor) (*MonitorStats, error) {
	rangeEnd := (now / 60) * 60
	rangeStart := maxInt64(rangeEnd-86400, m.CreatedAt)
	stats := &MonitorStats{MonitorID: m.ID, RangeToken: "24h"}
	if rangeStart >= rangeEnd {
		return stats, nil
	}

	outages, err := s.repo.GetOutagesOverlapping(m.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	downtime := make([]intervals.Interval, 0, len(outages))
	for _, o := range outages {
		end := rangeEnd
		if o.EndedAt != nil {
			end = *o.EndedAt
		}
		clipped, ok := intervals.Clip(intervals.Interval{Start: o.StartedAt, End: end}, intervals.Interval{Start: rangeStart, End: rangeEnd})
		if ok {
			downtime = append(downtime, clipped)
		}
	}
	downtime = intervals.Merge(downtime)
	downtimeSec := intervals.Sum(downtime)

	lookback := rangeStart - 2*int64(m.IntervalSec)
	checkRows, err := s.repo.GetCheckResultsFrom(m.ID, lookback, rangeEnd)
	if err != nil {
		return nil, err
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

	inRange, err := s.repo.GetCheckResultsFrom(m.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	var upLatencies []int64
	for _, c := range inRange {
		stats.ChecksTotal++
		if c.Status == db.StatusUp && c.LatencyMs != nil {
			upLatencies = append(upLatencies, *c.LatencyMs)
		}
	}
	if len(upLatencies) > 0 {
		sort.Slice(upLatencies, func(i, j int) bool { return upLatencies[i] < upLatencies[j] })
		var sum int64
		for _, v := range upLatencies {
			sum += v
		}
		avg := sum / int64(len(upLatencies))
		p50 := rollup.NearestRank(upLatencies, 50)
		p95 := rollup.NearestRank(upLatencies, 95)
		stats.AvgLatencyMs = &avg
		stats.P50LatencyMs = &p50
		stats.P95LatencyMs = &p95
	}

	stats.TotalSec = totalSec
	stats.DowntimeSec = downtimeSec
	stats.UnknownSec = unknownSec
	stats.UptimeSec = uptimeSec
	stats.UptimePct = uptimePct(uptimeSec, totalSec)
	return stats, nil
}

// rollupStats implements the 7d/30d/90d path by reading MonitorDailyRollup
// rows. The range starts no earlier than the monitor's creation day. A day
// in range with no rollup row (the job hasn't run for it) is treated as
// fully unknown: it contributes its full duration
// to total_sec and unknown_sec, and nothing to checks or latency.
func (s *Service) rollupStats(now int64, m *db.Monitor, rangeToken string, durSec int64) (*MonitorStats, error) {
	rangeEnd := timeutil.DayStart(now)
	rangeStart := maxInt64(rangeEnd-durSec, timeutil.DayStart(m.CreatedAt))

	stats := &MonitorStats{MonitorID: m.ID, RangeToken: rangeToken}
	if rangeStart >= rangeEnd {
		return stats, nil
	}

	rows, err := s.repo.GetDailyRollupsFrom(m.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	byDay := make(map[int64]*db.MonitorDailyRollup, len(rows))
	for _, row := range rows {
		byDay[row.DayStartAt] = row
	}

	var hists [][]int
	for day := rangeStart; day < rangeEnd; day += 86400 {
		dayEnd := day + 86400
		if dayEnd > rangeEnd {
			dayEnd = rangeEnd
		}
		daySec := dayEnd - day

		row, ok := byDay[day]
		if !ok {
			stats.TotalSec += daySec
			stats.UnknownSec += daySec
			stats.MissingDays++
			continue
		}
		stats.TotalSec += row.TotalSec
		stats.DowntimeSec += row.DowntimeSec
		stats.UnknownSec += row.UnknownSec
		stats.UptimeSec += row.UptimeSec
		stats.ChecksTotal += row.ChecksTotal
		if len(row.LatencyHistogram) > 0 {
			hists = append(hists, row.LatencyHistogram)
		}
	}

	stats.UptimePct = uptimePct(stats.UptimeSec, stats.TotalSec)

	if len(hists) > 0 {
		merged := rollup.MergeHistograms(hists...)
		p50 := rollup.PercentileFromHistogram(merged, 50)
		p95 := rollup.PercentileFromHistogram(merged, 95)
		stats.P50LatencyMs = &p50
		stats.P95LatencyMs = &p95
		stats.AvgLatencyMs = weightedAvgLatency(rows)
	}

	return stats, nil
}

// weightedAvgLatency computes a checks-up-weighted mean of each day's
// average latency, since the raw samples aren't retained past rollup.
func weightedAvgLatency(rows []*db.MonitorDailyRollup) *int64 {
	var weightedSum, weight int64
	for _, row := range rows {
		if row.AvgLatencyMs == nil || row.ChecksUp == 0 {
			continue
		}
		weightedSum += *row.AvgLatencyMs * int64(row.ChecksUp)
		weight += int64(row.ChecksUp)
	}
	if weight == 0 {
		return nil
	}
	avg := weightedSum / weight
	return &avg
}

func uptimePct(uptimeSec, totalSec int64) float64 {
	if totalSec <= 0 {
		return 100.0
	}
	return 100 * float64(uptimeSec) / float64(totalSec)
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Outages implements the keyset-paginated outage listing.
func (s *Service) Outages(monitorID, rangeStart, rangeEnd, beforeID int64, limit int) ([]*db.Outage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListOutages(monitorID, rangeStart, rangeEnd, beforeID, limit)
}
