package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerTick lets an external scheduler invoke the per-minute tick
// directly instead of relying on the in-process cron. The tick's own
// lease row makes overlapping or missed invocations safe.
func (h *Handler) TriggerTick(c *gin.Context) {
	h.scheduler.Tick(c.Request.Context(), now())
	c.Status(http.StatusNoContent)
}

// TriggerRollup runs the rollup synchronously and always answers 204:
// internal errors are logged, not propagated, so a flaky external caller
// can't make the rollup job appear stuck.
func (h *Handler) TriggerRollup(c *gin.Context) {
	h.rollup.Run(now())
	c.Status(http.StatusNoContent)
}
