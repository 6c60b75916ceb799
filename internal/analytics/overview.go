// Package analytics implements the read-side analytics queries: a
// cross-monitor overview for 24h/7d, per-monitor live 24h stats,
// per-monitor rollup-backed 7d/30d/90d stats, and keyset-paginated outage
// listing.
package analytics

import (
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/intervals"
	"github.com/leozw/uptime-guardian/internal/timeutil"
)

// Overview is the cross-monitor summary.
type Overview struct {
	TotalSec    int64   `json:"total_sec"`
	DowntimeSec int64   `json:"downtime_sec"`
	UptimeSec   int64   `json:"uptime_sec"`
	UptimePct   float64 `json:"uptime_pct"`
	Monitors    struct {
		Total int `json:"total"`
	} `json:"monitors"`
	Alerts struct {
		Count int `json:"count"`
	} `json:"alerts"`
	Outages struct {
		LongestSec int64   `json:"longest_sec"`
		MTTRSec    float64 `json:"mttr_sec"`
	} `json:"outages"`
}

type Service struct {
	repo *db.Repository
}

func NewService(repo *db.Repository) *Service {
	return &Service{repo: repo}
}

// Overview computes the cross-monitor aggregate for rangeToken in
// {"24h","7d"}.
func (s *Service) Overview(now int64, rangeToken string) (*Overview, error) {
	var rangeStart, rangeEnd int64
	switch rangeToken {
	case "24h":
		rangeEnd = (now / 60) * 60
		rangeStart = rangeEnd - 86400
	case "7d":
		rangeEnd = timeutil.DayStart(now)
		rangeStart = rangeEnd - 7*86400
	default:
		return nil, errInvalidRange(rangeToken)
	}

	monitors, err := s.repo.ListActiveMonitors()
	if err != nil {
		return nil, err
	}

	var totalSec, downtimeSec int64
	var longest int64
	var newOutages int
	var resolvedDurations []int64

	for _, m := range monitors {
		mRangeStart := maxInt64(rangeStart, m.CreatedAt)
		if mRangeStart >= rangeEnd {
			continue
		}
		totalSec += rangeEnd - mRangeStart

		outages, err := s.repo.GetOutagesOverlapping(m.ID, mRangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		raw := make([]intervals.Interval, 0, len(outages))
		for _, o := range outages {
			end := rangeEnd
			if o.EndedAt != nil {
				end = *o.EndedAt
			}
			raw = append(raw, intervals.Interval{Start: o.StartedAt, End: end})
			if o.StartedAt >= mRangeStart {
				newOutages++
			}
			if o.EndedAt != nil && *o.EndedAt >= mRangeStart && *o.EndedAt <= rangeEnd {
				dur := *o.EndedAt - o.StartedAt
				resolvedDurations = append(resolvedDurations, dur)
				if dur > longest {
					longest = dur
				}
			}
		}
		clipped := intervals.ClipAll(raw, intervals.Interval{Start: mRangeStart, End: rangeEnd})
		merged := intervals.Merge(clipped)
		downtimeSec += intervals.Sum(merged)
	}

	uptimeSec := totalSec - downtimeSec
	uptimePctVal := 100.0
	if totalSec > 0 {
		uptimePctVal = 100 * float64(uptimeSec) / float64(totalSec)
	}

	var mttr float64
	if len(resolvedDurations) > 0 {
		var sum int64
		for _, d := range resolvedDurations {
			sum += d
		}
		mttr = float64(sum) / float64(len(resolvedDurations))
	}

	ov := &Overview{
		TotalSec:    totalSec,
		DowntimeSec: downtimeSec,
		UptimeSec:   uptimeSec,
		UptimePct:   uptimePctVal,
	}
	ov.Monitors.Total = len(monitors)
	ov.Alerts.Count = newOutages
	ov.Outages.LongestSec = longest
	ov.Outages.MTTRSec = mttr
	return ov, nil
}

type invalidRangeError struct{ rangeToken string }

func (e invalidRangeError) Error() string { return "invalid range: " + e.rangeToken }

func errInvalidRange(rangeToken string) error { return invalidRangeError{rangeToken} }

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
