package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
	"github.com/leozw/uptime-guardian/internal/db"
)

type MaintenanceWindowRequest struct {
	Title      string  `json:"title" binding:"required"`
	Message    *string `json:"message"`
	StartsAt   int64   `json:"starts_at" binding:"required"`
	EndsAt     int64   `json:"ends_at" binding:"required,gtfield=StartsAt"`
	MonitorIDs []int64 `json:"monitor_ids" binding:"required,min=1"`
}

func (h *Handler) CreateMaintenanceWindow(c *gin.Context) {
	var req MaintenanceWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	w := &db.MaintenanceWindow{
		Title:     req.Title,
		Message:   req.Message,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		CreatedAt: now(),
	}
	if err := h.repo.CreateMaintenanceWindow(w, req.MonitorIDs); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *Handler) ListMaintenanceWindows(c *gin.Context) {
	n := now()
	active, err := h.repo.ListActiveMaintenanceWindows(n)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	upcoming, err := h.repo.ListUpcomingMaintenanceWindows(n, 100)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "upcoming": upcoming})
}

func (h *Handler) GetMaintenanceWindow(c *gin.Context) {
	id, err := maintenanceIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	w, err := h.repo.GetMaintenanceWindow(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "maintenance window not found"))
		return
	}
	monitorIDs, err := h.repo.GetMaintenanceWindowMonitorIDs(id)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": w, "monitor_ids": monitorIDs})
}

func (h *Handler) UpdateMaintenanceWindow(c *gin.Context) {
	id, err := maintenanceIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	existing, err := h.repo.GetMaintenanceWindow(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "maintenance window not found"))
		return
	}

	var req MaintenanceWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	existing.Title = req.Title
	existing.Message = req.Message
	existing.StartsAt = req.StartsAt
	existing.EndsAt = req.EndsAt

	if err := h.repo.UpdateMaintenanceWindow(existing, req.MonitorIDs); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *Handler) DeleteMaintenanceWindow(c *gin.Context) {
	id, err := maintenanceIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	if err := h.repo.DeleteMaintenanceWindow(id); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func maintenanceIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgumentf("invalid maintenance window id")
	}
	return id, nil
}
