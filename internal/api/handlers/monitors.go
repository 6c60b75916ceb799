package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/probes"
	"go.uber.org/zap"
)

// MonitorRequest is the admin create/update payload for the http/tcp
// monitor shape (no per-region config).
type MonitorRequest struct {
	Name                     string            `json:"name" binding:"required,min=1,max=255"`
	Type                     string            `json:"type" binding:"required,oneof=http tcp"`
	Target                   string            `json:"target" binding:"required"`
	IntervalSec              int               `json:"interval_sec" binding:"required,min=60,max=86400"`
	TimeoutMs                int               `json:"timeout_ms" binding:"required,min=1000,max=60000"`
	IsActive                 *bool             `json:"is_active"`
	HTTPMethod               *string           `json:"http_method"`
	HTTPHeaders              map[string]string `json:"http_headers"`
	HTTPBody                 *string           `json:"http_body"`
	ExpectedStatus           []int             `json:"expected_status" binding:"dive,min=100,max=599"`
	ResponseKeyword          *string           `json:"response_keyword"`
	ResponseForbiddenKeyword *string           `json:"response_forbidden_keyword"`
}

func (h *Handler) CreateMonitor(c *gin.Context) {
	var req MonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	if err := validateMonitorFieldsForType(req); err != nil {
		apperr.RespondError(c, err)
		return
	}
	if err := probes.ValidateTarget(req.Type, req.Target); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}

	n := now()
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	m := &db.Monitor{
		Name:                     req.Name,
		Type:                     db.MonitorType(req.Type),
		Target:                   req.Target,
		IntervalSec:              req.IntervalSec,
		TimeoutMs:                req.TimeoutMs,
		IsActive:                 isActive,
		CreatedAt:                n,
		UpdatedAt:                n,
		HTTPMethod:               req.HTTPMethod,
		HTTPHeaders:              db.StringMap(req.HTTPHeaders),
		HTTPBody:                 req.HTTPBody,
		ExpectedStatus:           db.IntSlice(req.ExpectedStatus),
		ResponseKeyword:          req.ResponseKeyword,
		ResponseForbiddenKeyword: req.ResponseForbiddenKeyword,
	}

	if err := h.repo.CreateMonitor(m); err != nil {
		h.logger.Error("failed to create monitor", zap.Error(err))
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}

	c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMonitors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	monitors, err := h.repo.ListMonitors(limit, (page-1)*limit)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"monitors": monitors})
}

func (h *Handler) GetMonitor(c *gin.Context) {
	id, err := monitorIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	m, err := h.repo.GetMonitor(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "monitor not found"))
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMonitor(c *gin.Context) {
	id, err := monitorIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	existing, err := h.repo.GetMonitor(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "monitor not found"))
		return
	}

	var req MonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	if err := validateMonitorFieldsForType(req); err != nil {
		apperr.RespondError(c, err)
		return
	}
	if err := probes.ValidateTarget(req.Type, req.Target); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}

	existing.Name = req.Name
	existing.Type = db.MonitorType(req.Type)
	existing.Target = req.Target
	existing.IntervalSec = req.IntervalSec
	existing.TimeoutMs = req.TimeoutMs
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.HTTPMethod = req.HTTPMethod
	existing.HTTPHeaders = db.StringMap(req.HTTPHeaders)
	existing.HTTPBody = req.HTTPBody
	existing.ExpectedStatus = db.IntSlice(req.ExpectedStatus)
	existing.ResponseKeyword = req.ResponseKeyword
	existing.ResponseForbiddenKeyword = req.ResponseForbiddenKeyword
	existing.UpdatedAt = now()

	if err := h.repo.UpdateMonitor(existing); err != nil {
		h.logger.Error("failed to update monitor", zap.Error(err))
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *Handler) DeleteMonitor(c *gin.Context) {
	id, err := monitorIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	if err := h.repo.DeleteMonitor(id); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) PauseMonitor(c *gin.Context) {
	h.setMonitorPaused(c, true)
}

func (h *Handler) ResumeMonitor(c *gin.Context) {
	h.setMonitorPaused(c, false)
}

func (h *Handler) setMonitorPaused(c *gin.Context, paused bool) {
	id, err := monitorIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	if _, err := h.repo.GetMonitor(id); err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "monitor not found"))
		return
	}
	if err := h.repo.SetMonitorPaused(id, paused); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": paused})
}

// TestMonitor runs a single one-off probe against the monitor's current
// configuration without writing a CheckResult or mutating state, so
// operators can validate a target before it's live.
func (h *Handler) TestMonitor(c *gin.Context) {
	id, err := monitorIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	m, err := h.repo.GetMonitor(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "monitor not found"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(m.TimeoutMs+1000)*time.Millisecond)
	defer cancel()

	var outcome probes.CheckOutcome
	switch m.Type {
	case db.MonitorTypeHTTP:
		outcome = h.httpProbe.Check(ctx, probes.HTTPRequest{
			URL:                      m.Target,
			Method:                   deref(m.HTTPMethod),
			Headers:                  m.HTTPHeaders,
			Body:                     deref(m.HTTPBody),
			TimeoutMs:                m.TimeoutMs,
			ExpectedStatus:           m.ExpectedStatus,
			ResponseKeyword:          deref(m.ResponseKeyword),
			ResponseForbiddenKeyword: deref(m.ResponseForbiddenKeyword),
		})
	case db.MonitorTypeTCP:
		outcome = h.tcpProbe.Check(ctx, probes.TCPRequest{Target: m.Target, TimeoutMs: m.TimeoutMs})
	default:
		apperr.RespondError(c, apperr.InvalidArgumentf("unsupported monitor type"))
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// validateMonitorFieldsForType enforces that HTTP-only fields are absent on
// a tcp monitor, per the Monitor invariant in the data model.
func validateMonitorFieldsForType(req MonitorRequest) error {
	if req.Type != "tcp" {
		return nil
	}
	if req.HTTPMethod != nil || req.HTTPBody != nil || len(req.HTTPHeaders) > 0 ||
		len(req.ExpectedStatus) > 0 || req.ResponseKeyword != nil || req.ResponseForbiddenKeyword != nil {
		return apperr.InvalidArgumentf("http-only fields must be absent for tcp monitors")
	}
	return nil
}

func monitorIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgumentf("invalid monitor id")
	}
	return id, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
