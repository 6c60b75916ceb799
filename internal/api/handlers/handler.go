package handlers

import (
	"github.com/leozw/uptime-guardian/internal/analytics"
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/metrics"
	"github.com/leozw/uptime-guardian/internal/probes"
	"github.com/leozw/uptime-guardian/internal/publicstatus"
	"github.com/leozw/uptime-guardian/internal/rollup"
	"github.com/leozw/uptime-guardian/internal/scheduler"
	"go.uber.org/zap"
)

// Handler holds the dependencies shared by every admin and public route.
type Handler struct {
	repo      *db.Repository
	metrics   *metrics.Collector
	logger    *zap.Logger
	analytics *analytics.Service
	snapshots *publicstatus.Store
	scheduler *scheduler.Scheduler
	rollup    *rollup.Runner
	httpProbe *probes.HTTPProbe
	tcpProbe  *probes.TCPProbe
}

func NewHandler(
	repo *db.Repository,
	m *metrics.Collector,
	logger *zap.Logger,
	analyticsSvc *analytics.Service,
	snapshots *publicstatus.Store,
	sched *scheduler.Scheduler,
	rollupRunner *rollup.Runner,
) *Handler {
	return &Handler{
		repo:      repo,
		metrics:   m,
		logger:    logger,
		analytics: analyticsSvc,
		snapshots: snapshots,
		scheduler: sched,
		rollup:    rollupRunner,
		httpProbe: probes.NewHTTPProbe(),
		tcpProbe:  probes.NewTCPProbe(),
	}
}
