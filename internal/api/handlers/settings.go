package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/apperr"
	"github.com/leozw/uptime-guardian/internal/db"
)

const settingsKey = "admin:settings"

// Settings is an open-ended operator-configurable blob, persisted as a
// JSON document under the snapshot table and merge-patched in place
// rather than kept in a dedicated single-row table.
type Settings struct {
	DefaultMonitorIntervalSec int  `json:"default_monitor_interval_sec"`
	DefaultMonitorTimeoutMs   int  `json:"default_monitor_timeout_ms"`
	PublicStatusEnabled       bool `json:"public_status_enabled"`
}

func defaultSettings() Settings {
	return Settings{
		DefaultMonitorIntervalSec: 60,
		DefaultMonitorTimeoutMs:   5000,
		PublicStatusEnabled:       true,
	}
}

func (h *Handler) GetSettings(c *gin.Context) {
	row, err := h.repo.GetSnapshot(settingsKey)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	if row == nil {
		c.JSON(http.StatusOK, defaultSettings())
		return
	}
	var s Settings
	if err := json.Unmarshal(row.BodyJSON, &s); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) PatchSettings(c *gin.Context) {
	current := defaultSettings()
	if row, err := h.repo.GetSnapshot(settingsKey); err == nil && row != nil {
		json.Unmarshal(row.BodyJSON, &current)
	}

	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf(err.Error()))
		return
	}
	merged, err := json.Marshal(current)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	var asMap map[string]json.RawMessage
	json.Unmarshal(merged, &asMap)
	for k, v := range patch {
		asMap[k] = v
	}
	finalBytes, err := json.Marshal(asMap)
	if err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	var final Settings
	if err := json.Unmarshal(finalBytes, &final); err != nil {
		apperr.RespondError(c, apperr.InvalidArgumentf("invalid settings patch"))
		return
	}

	n := now()
	if err := h.repo.PutSnapshot(&db.Snapshot{Key: settingsKey, GeneratedAt: n, BodyJSON: finalBytes, UpdatedAt: n}); err != nil {
		apperr.RespondError(c, apperr.Internalf(err))
		return
	}
	c.JSON(http.StatusOK, final)
}
