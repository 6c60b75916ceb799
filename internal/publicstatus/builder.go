// Package publicstatus implements the public status builder and the
// snapshot cache in front of it. The builder reads all active monitors,
// their state, maintenance overlay, recent heartbeats, active incidents,
// and maintenance windows, then derives a single display banner.
package publicstatus

import (
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/timeutil"
)

const heartbeatLimit = 60
const heartbeatLookbackSec = 7 * 86400

// MonitorView is one monitor's display shape in the public payload.
type MonitorView struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	IsStale       bool            `json:"is_stale"`
	LastLatencyMs *int64          `json:"last_latency_ms,omitempty"`
	LastCheckedAt *int64          `json:"last_checked_at,omitempty"`
	Heartbeats    []HeartbeatView `json:"heartbeats"`
}

// HeartbeatView is one check row in chronological order.
type HeartbeatView struct {
	CheckedAt int64  `json:"checked_at"`
	Status    string `json:"status"`
	LatencyMs *int64 `json:"latency_ms,omitempty"`
}

type IncidentView struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Impact     string   `json:"impact"`
	StartedAt  int64    `json:"started_at"`
	MonitorIDs []int64  `json:"monitor_ids"`
	Updates    []string `json:"updates,omitempty"`
}

type MaintenanceWindowView struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	StartsAt int64  `json:"starts_at"`
	EndsAt   int64  `json:"ends_at"`
}

type Banner struct {
	Source    string        `json:"source"`
	Status    string        `json:"status"`
	DownRatio *float64      `json:"down_ratio,omitempty"`
	Incident  *IncidentView `json:"incident,omitempty"`
}

// Response is the public status page payload.
type Response struct {
	GeneratedAt         int64                    `json:"generated_at"`
	OverallStatus       string                   `json:"overall_status"`
	Counts              map[string]int           `json:"counts"`
	Monitors            []MonitorView            `json:"monitors"`
	Incidents           []IncidentView           `json:"incidents"`
	ActiveMaintenance   []MaintenanceWindowView  `json:"active_maintenance"`
	UpcomingMaintenance []MaintenanceWindowView  `json:"upcoming_maintenance"`
	Banner              Banner                   `json:"banner"`
}

type Builder struct {
	repo *db.Repository
}

func NewBuilder(repo *db.Repository) *Builder {
	return &Builder{repo: repo}
}

// Build assembles one status-page snapshot anchored at now.
func (b *Builder) Build(now int64) (*Response, error) {
	rangeEnd := timeutil.FloorToMinute(now)
	lookbackFrom := rangeEnd - heartbeatLookbackSec

	monitors, err := b.repo.ListActiveMonitors()
	if err != nil {
		return nil, err
	}
	maintainedIDs, err := b.repo.MonitorIDsUnderMaintenance(now)
	if err != nil {
		return nil, err
	}
	maintained := toSet(maintainedIDs)

	monitorIDs := make([]int64, len(monitors))
	for i, m := range monitors {
		monitorIDs[i] = m.ID
	}
	heartbeats, err := b.repo.GetHeartbeatsBatch(monitorIDs, lookbackFrom, heartbeatLimit)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	views := make([]MonitorView, 0, len(monitors))
	for _, m := range monitors {
		state, err := b.repo.GetMonitorState(m.ID)
		if err != nil {
			return nil, err
		}
		view := buildMonitorView(m, state, maintained[m.ID], now, heartbeats[m.ID])
		counts[view.Status]++
		views = append(views, view)
	}

	overall := deriveOverallStatus(counts)

	incidentRows, err := b.repo.ListActiveIncidents(5)
	if err != nil {
		return nil, err
	}
	incidentViews := make([]IncidentView, 0, len(incidentRows))
	for _, inc := range incidentRows {
		ids, err := b.repo.GetIncidentMonitorIDs(inc.ID)
		if err != nil {
			return nil, err
		}
		incidentViews = append(incidentViews, toIncidentView(inc, ids))
	}

	activeWindows, err := b.repo.ListActiveMaintenanceWindows(now)
	if err != nil {
		return nil, err
	}
	if len(activeWindows) > 3 {
		activeWindows = activeWindows[:3]
	}
	upcomingWindows, err := b.repo.ListUpcomingMaintenanceWindows(now, 5)
	if err != nil {
		return nil, err
	}

	banner := deriveBanner(incidentViews, counts, activeWindows)

	return &Response{
		GeneratedAt:         now,
		OverallStatus:       overall,
		Counts:              counts,
		Monitors:            views,
		Incidents:           incidentViews,
		ActiveMaintenance:   toWindowViews(activeWindows),
		UpcomingMaintenance: toWindowViews(upcomingWindows),
		Banner:              banner,
	}, nil
}

func buildMonitorView(m *db.Monitor, state *db.MonitorState, inMaintenance bool, now int64, heartbeats []*db.CheckResult) MonitorView {
	var stored db.Status = db.StatusUnknown
	var lastCheckedAt, lastLatencyMs *int64
	if state != nil {
		stored = state.Status
		lastCheckedAt = state.LastCheckedAt
		lastLatencyMs = state.LastLatencyMs
	}

	isStale := false
	if !inMaintenance && stored != db.StatusPaused && stored != db.StatusMaintenance {
		isStale = lastCheckedAt == nil || now-*lastCheckedAt > 2*int64(m.IntervalSec)
	}

	display := string(stored)
	switch {
	case inMaintenance:
		display = string(db.StatusMaintenance)
	case isStale:
		display = string(db.StatusUnknown)
	}

	if isStale {
		lastLatencyMs = nil
	}

	hbViews := make([]HeartbeatView, 0, len(heartbeats))
	for _, hb := range heartbeats {
		hbViews = append(hbViews, HeartbeatView{CheckedAt: hb.CheckedAt, Status: string(hb.Status), LatencyMs: hb.LatencyMs})
	}

	return MonitorView{
		ID:            m.ID,
		Name:          m.Name,
		Type:          string(m.Type),
		Status:        display,
		IsStale:       isStale,
		LastLatencyMs: lastLatencyMs,
		LastCheckedAt: lastCheckedAt,
		Heartbeats:    hbViews,
	}
}

// deriveOverallStatus ranks down > unknown > maintenance > up > paused.
func deriveOverallStatus(counts map[string]int) string {
	switch {
	case counts[string(db.StatusDown)] > 0:
		return string(db.StatusDown)
	case counts[string(db.StatusUnknown)] > 0:
		return string(db.StatusUnknown)
	case counts[string(db.StatusMaintenance)] > 0:
		return string(db.StatusMaintenance)
	case counts[string(db.StatusUp)] > 0:
		return string(db.StatusUp)
	case counts[string(db.StatusPaused)] > 0:
		return string(db.StatusPaused)
	default:
		return string(db.StatusUnknown)
	}
}

// deriveBanner prefers the top active incident, then the raw down ratio
// across monitors, then unknown coverage, then maintenance, else healthy.
func deriveBanner(incidents []IncidentView, counts map[string]int, activeWindows []*db.MaintenanceWindow) Banner {
	if len(incidents) > 0 {
		top := incidents[0]
		status := "operational"
		for _, inc := range incidents {
			switch inc.Impact {
			case string(db.ImpactCritical), string(db.ImpactMajor):
				status = "major_outage"
			case string(db.ImpactMinor):
				if status != "major_outage" {
					status = "partial_outage"
				}
			}
		}
		return Banner{Source: "incident", Status: status, Incident: &top}
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	down := counts[string(db.StatusDown)]
	if down > 0 && total > 0 {
		ratio := float64(down) / float64(total)
		status := "partial_outage"
		if ratio >= 0.3 {
			status = "major_outage"
		}
		return Banner{Source: "monitors", Status: status, DownRatio: &ratio}
	}

	if counts[string(db.StatusUnknown)] > 0 {
		return Banner{Source: "monitors", Status: "unknown"}
	}

	if len(activeWindows) > 0 {
		return Banner{Source: "maintenance", Status: "maintenance"}
	}

	return Banner{Source: "monitors", Status: "operational"}
}

func toIncidentView(inc *db.Incident, monitorIDs []int64) IncidentView {
	return IncidentView{
		ID:         inc.ID,
		Title:      inc.Title,
		Status:     string(inc.Status),
		Impact:     string(inc.Impact),
		StartedAt:  inc.StartedAt,
		MonitorIDs: monitorIDs,
	}
}

func toWindowViews(windows []*db.MaintenanceWindow) []MaintenanceWindowView {
	out := make([]MaintenanceWindowView, 0, len(windows))
	for _, w := range windows {
		out = append(out, MaintenanceWindowView{ID: w.ID, Title: w.Title, StartsAt: w.StartsAt, EndsAt: w.EndsAt})
	}
	return out
}

func toSet(ids []int64) map[int64]bool {
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
