package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
	"github.com/leozw/uptime-guardian/internal/timeutil"
)

func (h *Handler) AnalyticsOverview(c *gin.Context) {
	rangeToken := c.DefaultQuery("range", "24h")
	ov, err := h.analytics.Overview(now(), rangeToken)
	if err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (h *Handler) AnalyticsMonitor(c *gin.Context) {
	id, err := monitorIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	rangeToken := c.DefaultQuery("range", "24h")
	stats, err := h.analytics.MonitorStats(now(), id, rangeToken)
	if err != nil {
		apperr.RespondError(c, classifyAnalyticsErr(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AnalyticsMonitorOutages(c *gin.Context) {
	id, err := monitorIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	rangeToken := c.DefaultQuery("range", "30d")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	beforeID, _ := strconv.ParseInt(c.DefaultQuery("cursor", "0"), 10, 64)

	n := now()
	durSec, ok := timeutil.RangeSeconds(rangeToken)
	if !ok {
		apperr.RespondError(c, apperr.InvalidArgumentf("invalid range"))
		return
	}
	rangeEnd := n
	rangeStart := rangeEnd - durSec

	outages, err := h.analytics.Outages(id, rangeStart, rangeEnd, beforeID, limit)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"outages": outages})
}
