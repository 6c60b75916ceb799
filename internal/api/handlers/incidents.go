package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
	"github.com/leozw/uptime-guardian/internal/db"
)

type IncidentRequest struct {
	Title      string  `json:"title" binding:"required"`
	Impact     string  `json:"impact" binding:"required,oneof=none minor major critical"`
	Message    *string `json:"message"`
	MonitorIDs []int64 `json:"monitor_ids" binding:"required,min=1"`
}

func (h *Handler) CreateIncident(c *gin.Context) {
	var req IncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	inc := &db.Incident{
		Title:     req.Title,
		Status:    db.IncidentInvestigating,
		Impact:    db.Impact(req.Impact),
		Message:   req.Message,
		StartedAt: now(),
	}
	if err := h.repo.CreateIncident(inc, req.MonitorIDs); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusCreated, inc)
}

func (h *Handler) ListIncidents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	beforeID, _ := strconv.ParseInt(c.DefaultQuery("cursor", "0"), 10, 64)
	resolvedOnly := c.DefaultQuery("resolved_only", "false") == "true"

	incidents, err := h.repo.ListIncidents(resolvedOnly, beforeID, limit)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents})
}

func (h *Handler) GetIncident(c *gin.Context) {
	id, err := incidentIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	inc, err := h.repo.GetIncident(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "incident not found"))
		return
	}
	monitorIDs, err := h.repo.GetIncidentMonitorIDs(id)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	updates, err := h.repo.ListIncidentUpdates(id)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"incident": inc, "monitor_ids": monitorIDs, "updates": updates})
}

func (h *Handler) AddIncidentUpdate(c *gin.Context) {
	id, err := incidentIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	inc, err := h.repo.GetIncident(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "incident not found"))
		return
	}

	var req struct {
		Status  *string `json:"status" binding:"omitempty,oneof=investigating identified monitoring resolved"`
		Message string  `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}

	update := &db.IncidentUpdate{IncidentID: id, Message: req.Message, CreatedAt: now()}
	if req.Status != nil {
		s := db.IncidentStatus(*req.Status)
		update.Status = &s
		inc.Status = s
		if err := h.repo.UpdateIncidentStatus(id, s, inc.ResolvedAt); err != nil {
			apperr.RespondError(c, apperr.Internalf(err))
			return
		}
	}
	if err := h.repo.CreateIncidentUpdate(update); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusCreated, update)
}

// ResolveIncident is a no-op on an already-resolved incident: it leaves
// resolved_at untouched rather than bumping it forward.
func (h *Handler) ResolveIncident(c *gin.Context) {
	id, err := incidentIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	inc, err := h.repo.GetIncident(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "incident not found"))
		return
	}
	if inc.Status == db.IncidentResolved {
		c.JSON(http.StatusOK, inc)
		return
	}

	n := now()
	if err := h.repo.UpdateIncidentStatus(id, db.IncidentResolved, &n); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	inc.Status = db.IncidentResolved
	inc.ResolvedAt = &n
	c.JSON(http.StatusOK, inc)
}

func (h *Handler) DeleteIncident(c *gin.Context) {
	id, err := incidentIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	if err := h.repo.DeleteIncident(id); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func incidentIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgumentf("invalid incident id")
	}
	return id, nil
}
