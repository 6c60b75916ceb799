// Package metrics wires github.com/prometheus/client_golang with
// promauto-registered vectors on a Collector struct, one Record* method
// per event. Label dimensions are kept to monitor_id, type, status,
// outcome, channel_id and key, matching the closed http/tcp monitor model
// this service exposes; no vector carries the probe target.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	checkDuration    *prometheus.HistogramVec
	checkUp          *prometheus.GaugeVec
	checksTotal      *prometheus.CounterVec
	lastCheckSeconds *prometheus.GaugeVec

	schedulerTickDuration *prometheus.HistogramVec
	schedulerTickSkipped  prometheus.Counter
	schedulerDueMonitors  prometheus.Gauge

	rollupDuration prometheus.Histogram
	rollupSkipped  prometheus.Counter

	notificationsSent   *prometheus.CounterVec
	notificationLatency *prometheus.HistogramVec

	snapshotAgeSeconds *prometheus.GaugeVec
}

func NewCollector() *Collector {
	return &Collector{
		checkDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uptime_check_duration_seconds",
				Help:    "Duration of probe checks in seconds",
				Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"monitor_id", "type"},
		),
		checkUp: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "uptime_check_up",
				Help: "Whether the last check was up (1) or not (0)",
			},
			[]string{"monitor_id", "type"},
		),
		checksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptime_checks_total",
				Help: "Total number of checks performed",
			},
			[]string{"monitor_id", "type", "status"},
		),
		lastCheckSeconds: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "uptime_last_check_timestamp_seconds",
				Help: "Wall-clock time of the last check for a monitor",
			},
			[]string{"monitor_id"},
		),
		schedulerTickDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uptime_scheduler_tick_duration_seconds",
				Help:    "Duration of a full scheduler tick, from lease acquisition to snapshot trigger",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		schedulerTickSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uptime_scheduler_tick_skipped_total",
			Help: "Number of ticks skipped because the tick lease was already held",
		}),
		schedulerDueMonitors: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "uptime_scheduler_due_monitors",
			Help: "Number of monitors selected as due on the most recent tick",
		}),
		rollupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "uptime_rollup_duration_seconds",
			Help:    "Duration of the daily rollup job",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		rollupSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uptime_rollup_skipped_total",
			Help: "Number of rollup triggers skipped because the rollup lease was already held",
		}),
		notificationsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uptime_notifications_sent_total",
				Help: "Total number of webhook deliveries attempted",
			},
			[]string{"channel_id", "status"},
		),
		notificationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uptime_notification_latency_seconds",
				Help:    "Webhook delivery latency",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"channel_id"},
		),
		snapshotAgeSeconds: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "uptime_snapshot_age_seconds",
				Help: "Age of the cached public snapshot at last read",
			},
			[]string{"key"},
		),
	}
}

func (c *Collector) RecordCheck(monitorID string, monitorType string, status string, up bool, durationSeconds float64) {
	labels := prometheus.Labels{"monitor_id": monitorID, "type": monitorType}
	c.checkDuration.With(labels).Observe(durationSeconds)

	upValue := 0.0
	if up {
		upValue = 1.0
	}
	c.checkUp.With(labels).Set(upValue)

	c.checksTotal.With(prometheus.Labels{"monitor_id": monitorID, "type": monitorType, "status": status}).Inc()
	c.lastCheckSeconds.With(prometheus.Labels{"monitor_id": monitorID}).SetToCurrentTime()
}

func (c *Collector) RecordSchedulerTick(outcome string, durationSeconds float64, dueMonitors int) {
	c.schedulerTickDuration.With(prometheus.Labels{"outcome": outcome}).Observe(durationSeconds)
	c.schedulerDueMonitors.Set(float64(dueMonitors))
}

func (c *Collector) RecordSchedulerTickSkipped() {
	c.schedulerTickSkipped.Inc()
}

func (c *Collector) RecordRollup(durationSeconds float64) {
	c.rollupDuration.Observe(durationSeconds)
}

func (c *Collector) RecordRollupSkipped() {
	c.rollupSkipped.Inc()
}

func (c *Collector) RecordNotification(channelID string, success bool, latencySeconds float64) {
	status := "success"
	if !success {
		status = "failed"
	}
	c.notificationsSent.With(prometheus.Labels{"channel_id": channelID, "status": status}).Inc()
	c.notificationLatency.With(prometheus.Labels{"channel_id": channelID}).Observe(latencySeconds)
}

func (c *Collector) RecordSnapshotAge(key string, ageSeconds float64) {
	c.snapshotAgeSeconds.With(prometheus.Labels{"key": key}).Set(ageSeconds)
}
