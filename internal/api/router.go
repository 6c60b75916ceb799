// Package api wires the HTTP surface: a Server struct holding the config
// and gin engine, a setupRoutes method grouping admin/public endpoints.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/leozw/uptime-guardian/internal/api/handlers"
	"github.com/leozw/uptime-guardian/internal/api/middleware"
	"github.com/leozw/uptime-guardian/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	Config  *config.Config
	Router  *gin.Engine
	Handler *handlers.Handler
}

func NewServer(cfg *config.Config, h *handlers.Handler, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	server := &Server{
		Config:  cfg,
		Router:  router,
		Handler: h,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	h := s.Handler

	s.Router.GET("/health", h.Health)
	s.Router.GET("/ready", h.Ready)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := s.Router.Group("/public")
	{
		public.GET("/status", h.PublicStatus)
		public.GET("/incidents", h.PublicIncidents)
		public.GET("/maintenance-windows", h.PublicMaintenanceWindows)
		public.GET("/analytics/uptime", h.PublicAnalyticsUptime)
		public.GET("/monitors/:id/latency", h.MonitorLatency)
		public.GET("/monitors/:id/uptime", h.MonitorUptime)
		public.GET("/monitors/:id/day-context", h.MonitorDayContext)
	}

	admin := s.Router.Group("/admin")
	admin.Use(middleware.AdminRequired(s.Config.Admin.Token))
	{
		monitors := admin.Group("/monitors")
		{
			monitors.POST("", h.CreateMonitor)
			monitors.GET("", h.ListMonitors)
			monitors.GET("/:id", h.GetMonitor)
			monitors.PATCH("/:id", h.UpdateMonitor)
			monitors.DELETE("/:id", h.DeleteMonitor)
			monitors.POST("/:id/pause", h.PauseMonitor)
			monitors.POST("/:id/resume", h.ResumeMonitor)
			monitors.POST("/:id/test", h.TestMonitor)
		}

		channels := admin.Group("/notification-channels")
		{
			channels.POST("", h.CreateChannel)
			channels.GET("", h.ListChannels)
			channels.PATCH("/:id", h.UpdateChannel)
			channels.DELETE("/:id", h.DeleteChannel)
			channels.POST("/:id/test", h.TestChannel)
		}

		incidents := admin.Group("/incidents")
		{
			incidents.POST("", h.CreateIncident)
			incidents.GET("", h.ListIncidents)
			incidents.GET("/:id", h.GetIncident)
			incidents.POST("/:id/updates", h.AddIncidentUpdate)
			incidents.PATCH("/:id/resolve", h.ResolveIncident)
			incidents.DELETE("/:id", h.DeleteIncident)
		}

		maintenance := admin.Group("/maintenance-windows")
		{
			maintenance.POST("", h.CreateMaintenanceWindow)
			maintenance.GET("", h.ListMaintenanceWindows)
			maintenance.GET("/:id", h.GetMaintenanceWindow)
			maintenance.PATCH("/:id", h.UpdateMaintenanceWindow)
			maintenance.DELETE("/:id", h.DeleteMaintenanceWindow)
		}

		analytics := admin.Group("/analytics")
		{
			analytics.GET("/overview", h.AnalyticsOverview)
			analytics.GET("/monitors/:id", h.AnalyticsMonitor)
			analytics.GET("/monitors/:id/outages", h.AnalyticsMonitorOutages)
		}

		admin.GET("/settings", h.GetSettings)
		admin.PATCH("/settings", h.PatchSettings)

		admin.POST("/trigger/tick", h.TriggerTick)
		admin.POST("/trigger/rollup", h.TriggerRollup)
	}
}
