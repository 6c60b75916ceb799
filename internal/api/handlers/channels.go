package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/notify"
	"github.com/leozw/uptime-guardian/internal/secretstore"
)

type ChannelRequest struct {
	Name     string           `json:"name" binding:"required"`
	Type     string           `json:"type" binding:"required,oneof=webhook"`
	Config   db.ChannelConfig `json:"config" binding:"required"`
	IsActive *bool            `json:"is_active"`
}

func (h *Handler) CreateChannel(c *gin.Context) {
	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	ch := &db.NotificationChannel{
		Name:      req.Name,
		Type:      db.ChannelType(req.Type),
		Config:    req.Config,
		IsActive:  isActive,
		CreatedAt: now(),
	}
	if err := h.repo.CreateChannel(ch); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (h *Handler) ListChannels(c *gin.Context) {
	channels, err := h.repo.ListChannels()
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *Handler) UpdateChannel(c *gin.Context) {
	id, err := channelIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	existing, err := h.repo.GetChannel(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "channel not found"))
		return
	}

	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	existing.Name = req.Name
	existing.Type = db.ChannelType(req.Type)
	existing.Config = req.Config
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := h.repo.UpdateChannel(existing); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *Handler) DeleteChannel(c *gin.Context) {
	id, err := channelIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	if err := h.repo.DeleteChannel(id); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// TestChannel sends a synthetic monitor.test event through the channel's
// real delivery path (signing included). The event key is built from the
// channel id and the current unix second, so a repeat call within the same
// second is caught by the delivery-dedup index and not sent again.
func (h *Handler) TestChannel(c *gin.Context) {
	id, err := channelIDParam(c)
	if err != nil {
		apperr.RespondError(c, err)
		return
	}
	ch, err := h.repo.GetChannel(id)
	if err != nil {
		apperr.RespondError(c, notFoundOrInternal(err, "channel not found"))
		return
	}

	n := now()
	eventKey := "test:" + strconv.FormatInt(id, 10) + ":" + strconv.FormatInt(n, 10)
	payload := notify.Payload{
		Event:     "monitor.test",
		EventID:   eventKey,
		Timestamp: n,
		Monitor:   notify.MonitorRef{ID: 0, Name: "test", Type: "http", Target: "https://example.invalid"},
		State:     notify.StateRef{Status: "up"},
	}

	dispatcher := notify.NewDispatcher(h.repo, secretstore.NewEnvStore("WEBHOOK_SECRET_"), h.metrics, h.logger)
	dispatcher.Dispatch(eventKey, payload, []*db.NotificationChannel{ch})

	c.JSON(http.StatusOK, gin.H{"event_key": eventKey, "url": ch.Config.URL})
}

func channelIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgumentf("invalid channel id")
	}
	return id, nil
}
