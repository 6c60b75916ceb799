package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/publicstatus"
	"github.com/leozw/uptime-guardian/internal/rollup"
	"github.com/leozw/uptime-guardian/internal/timeutil"
)

// now is the package-wide clock every handler reads the current time
// through, so a test can swap it for a fixed timeutil.Clock.
var now timeutil.Clock = timeutil.RealClock

// PublicStatus serves GET /public/status.
func (h *Handler) PublicStatus(c *gin.Context) {
	resp, age, err := h.snapshots.Read(c.Request.Context(), now())
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.Header("Cache-Control", publicstatus.CacheControl(age))
	c.JSON(http.StatusOK, resp)
}

type latencyPoint struct {
	CheckedAt int64  `json:"checked_at"`
	Status    string `json:"status"`
	LatencyMs *int64 `json:"latency_ms,omitempty"`
}

// MonitorLatency serves GET /public/monitors/{id}/latency?range=24h.
func (h *Handler) MonitorLatency(c *gin.Context) {
	monitorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf("invalid monitor id"))
		return
	}
	rangeToken := c.DefaultQuery("range", "24h")
	durSec, ok := timeutil.RangeSeconds(rangeToken)
	if !ok {
		apperr.RespondError(c, apperr.InvalidArgumentf("invalid range"))
		return
	}

	m, err := h.repo.GetMonitor(monitorID)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "monitor not found"))
		return
	}

	n := now()
	rangeEnd := (n / 60) * 60
	rangeStart := rangeEnd - durSec
	if m.CreatedAt > rangeStart {
		rangeStart = m.CreatedAt
	}

	checks, err := h.repo.GetCheckResultsFrom(monitorID, rangeStart, rangeEnd)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}

	points := make([]latencyPoint, 0, len(checks))
	var upLatencies []int64
	for _, chk := range checks {
		points = append(points, latencyPoint{CheckedAt: chk.CheckedAt, Status: string(chk.Status), LatencyMs: chk.LatencyMs})
		if chk.Status == db.StatusUp && chk.LatencyMs != nil {
			upLatencies = append(upLatencies, *chk.LatencyMs)
		}
	}

	resp := gin.H{
		"monitor":        monitorID,
		"range":          rangeToken,
		"range_start_at": rangeStart,
		"range_end_at":   rangeEnd,
		"points":         points,
	}
	if len(upLatencies) > 0 {
		sortInt64s(upLatencies)
		var sum int64
		for _, v := range upLatencies {
			sum += v
		}
		avg := sum / int64(len(upLatencies))
		resp["avg_latency_ms"] = avg
		resp["p95_latency_ms"] = rollup.NearestRank(upLatencies, 95)
	}

	c.JSON(http.StatusOK, resp)
}

// MonitorUptime serves GET /public/monitors/{id}/uptime?range=24h|7d|30d.
func (h *Handler) MonitorUptime(c *gin.Context) {
	monitorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf("invalid monitor id"))
		return
	}
	rangeToken := c.DefaultQuery("range", "24h")

	stats, err := h.analytics.MonitorStats(now(), monitorID, rangeToken)
	if err != nil {
		apperr.RespondError(c, classifyAnalyticsErr(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PublicAnalyticsUptime serves GET /public/analytics/uptime?range=30d|90d.
func (h *Handler) PublicAnalyticsUptime(c *gin.Context) {
	rangeToken := c.DefaultQuery("range", "30d")
	if rangeToken != "30d" && rangeToken != "90d" {
		apperr.RespondError(c, apperr.InvalidArgumentf("range must be 30d or 90d"))
		return
	}

	monitors, err := h.repo.ListActiveMonitors()
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}

	n := now()
	perMonitor := make([]gin.H, 0, len(monitors))
	var totalSec, downtimeSec, uptimeSec int64
	for _, m := range monitors {
		stats, err := h.analytics.MonitorStats(n, m.ID, rangeToken)
		if err != nil {
			apperr.RespondError(c, apperr.Internalf(err))
			return
		}
		totalSec += stats.TotalSec
		downtimeSec += stats.DowntimeSec
		uptimeSec += stats.UptimeSec
		perMonitor = append(perMonitor, gin.H{
			"monitor_id": m.ID,
			"name":       m.Name,
			"stats":      stats,
		})
	}

	uptimePct := 100.0
	if totalSec > 0 {
		uptimePct = 100 * float64(uptimeSec) / float64(totalSec)
	}

	c.JSON(http.StatusOK, gin.H{
		"range": rangeToken,
		"overview": gin.H{
			"total_sec":    totalSec,
			"downtime_sec": downtimeSec,
			"uptime_sec":   uptimeSec,
			"uptime_pct":   uptimePct,
		},
		"monitors": perMonitor,
	})
}

// PublicIncidents serves GET /public/incidents?limit=&cursor=&resolved_only=.
func (h *Handler) PublicIncidents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	beforeID, _ := strconv.ParseInt(c.DefaultQuery("cursor", "0"), 10, 64)
	resolvedOnly := c.DefaultQuery("resolved_only", "false") == "true"

	incidents, err := h.repo.ListIncidents(resolvedOnly, beforeID, limit)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}

	out := make([]gin.H, 0, len(incidents))
	for _, inc := range incidents {
		ids, err := h.repo.GetIncidentMonitorIDs(inc.ID)
		if err != nil {
			apperr.RespondError(c, apperr.Internalf(err))
			return
		}
		updates, err := h.repo.ListIncidentUpdates(inc.ID)
		if err != nil {
			apperr.RespondError(c, apperr.Internalf(err))
			return
		}
		out = append(out, gin.H{
			"incident":    inc,
			"monitor_ids": ids,
			"updates":     updates,
		})
	}

	c.JSON(http.StatusOK, gin.H{"incidents": out})
}

// PublicMaintenanceWindows serves GET /public/maintenance-windows.
func (h *Handler) PublicMaintenanceWindows(c *gin.Context) {
	n := now()
	active, err := h.repo.ListActiveMaintenanceWindows(n)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	upcoming, err := h.repo.ListUpcomingMaintenanceWindows(n, 20)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "upcoming": upcoming})
}

// MonitorDayContext serves GET /public/monitors/{id}/day-context?day_start_at=….
// It supplements the status snapshot with the detail a status-page history
// calendar needs when a viewer hovers a single day: that day's rollup (if
// computed), the outages overlapping it, and any maintenance windows
// overlapping it.
func (h *Handler) MonitorDayContext(c *gin.Context) {
	monitorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf("invalid monitor id"))
		return
	}
	dayStartAt, err := strconv.ParseInt(c.Query("day_start_at"), 10, 64)
	if err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf("day_start_at is required"))
		return
	}
	dayStartAt = timeutil.DayStart(dayStartAt)
	dayEnd := dayStartAt + 86400

	rollupRow, err := h.repo.GetDailyRollup(monitorID, dayStartAt)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	outages, err := h.repo.GetOutagesOverlapping(monitorID, dayStartAt, dayEnd)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	windows, err := h.repo.ListMaintenanceWindowsOverlapping(dayStartAt, dayEnd)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day_start_at":        dayStartAt,
		"rollup":              rollupRow,
		"outages":             outages,
		"maintenance_windows": windows,
	})
}

func notFoundOrInternal(err error, message string) error {
	if err == db.ErrNotFound {
		return apperr.NotFoundf(message)
	}
	return apperr.Internalf(err)
}

func classifyAnalyticsErr(err error) error {
	if err == db.ErrNotFound {
		return apperr.NotFoundf("monitor not found")
	}
	return apperr.Internalf(err)
}

func sortInt64s(vs []int64) {
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
}
