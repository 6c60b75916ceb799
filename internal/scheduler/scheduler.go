// Package scheduler implements the leased tick that drives probing: a
// bounded worker pool runs due probes, advances the state machine,
// persists each monitor's batch atomically, and hands off observable
// transitions to notification dispatch. A Scheduler has no ticker of its
// own: Tick is invoked from outside (the per-minute gocron job in
// cmd/scheduler, or the admin tick trigger endpoint), and each call runs
// its own bounded worker pool.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/leozw/uptime-guardian/internal/config"
	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/lock"
	"github.com/leozw/uptime-guardian/internal/metrics"
	"github.com/leozw/uptime-guardian/internal/notify"
	"github.com/leozw/uptime-guardian/internal/probes"
	"github.com/leozw/uptime-guardian/internal/statemachine"
	"github.com/leozw/uptime-guardian/internal/timeutil"
	"go.uber.org/zap"
)

const tickLockName = "scheduler:tick"

// SnapshotRefresher is invoked best-effort after every tick. Implemented by
// internal/publicstatus to avoid an import cycle.
type SnapshotRefresher interface {
	Refresh(ctx context.Context, now int64) error
}

type Scheduler struct {
	repo      *db.Repository
	leaser    *lock.Leaser
	metrics   *metrics.Collector
	dispatch  *notify.Dispatcher
	snapshot  SnapshotRefresher
	httpProbe *probes.HTTPProbe
	tcpProbe  *probes.TCPProbe
	logger    *zap.Logger
	workers   int
	leaseSec  int64
}

func NewScheduler(
	repo *db.Repository,
	m *metrics.Collector,
	dispatch *notify.Dispatcher,
	snapshot SnapshotRefresher,
	logger *zap.Logger,
	cfg *config.SchedulerConfig,
) *Scheduler {
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 5
	}
	leaseSec := cfg.TickLeaseSec
	if leaseSec <= 0 {
		leaseSec = 55
	}
	return &Scheduler{
		repo:      repo,
		leaser:    lock.NewLeaser(repo),
		metrics:   m,
		dispatch:  dispatch,
		snapshot:  snapshot,
		httpProbe: probes.NewHTTPProbe(),
		tcpProbe:  probes.NewTCPProbe(),
		logger:    logger,
		workers:   workers,
		leaseSec:  leaseSec,
	}
}

// Tick runs one scheduler pass anchored at now.
func (s *Scheduler) Tick(ctx context.Context, now int64) {
	start := time.Now()
	checkedAt := timeutil.FloorToMinute(now)

	acquired, err := s.leaser.Acquire(tickLockName, now, s.leaseSec)
	if err != nil {
		s.logger.Error("failed to acquire tick lease", zap.Error(err))
		return
	}
	if !acquired {
		s.metrics.RecordSchedulerTickSkipped()
		return
	}

	due, err := s.repo.SelectDueMonitors(checkedAt)
	if err != nil {
		s.logger.Error("failed to select due monitors", zap.Error(err))
		return
	}

	maintained, err := s.repo.MonitorIDsUnderMaintenance(now)
	if err != nil {
		s.logger.Error("failed to fetch maintenance set", zap.Error(err))
		maintained = nil
	}
	maintenanceSet := make(map[int64]bool, len(maintained))
	for _, id := range maintained {
		maintenanceSet[id] = true
	}

	channels, err := s.repo.ListActiveChannels()
	if err != nil {
		s.logger.Error("failed to fetch active channels", zap.Error(err))
		channels = nil
	}

	s.runProbes(ctx, due, checkedAt, maintenanceSet, channels)

	if err := s.snapshot.Refresh(ctx, now); err != nil {
		s.logger.Warn("snapshot refresh after tick failed", zap.Error(err))
	}

	s.metrics.RecordSchedulerTick("ok", time.Since(start).Seconds(), len(due))
}

func (s *Scheduler) runProbes(ctx context.Context, monitors []*db.Monitor, checkedAt int64, maintained map[int64]bool, channels []*db.NotificationChannel) {
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, m := range monitors {
		m := m
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.checkOne(ctx, m, checkedAt, maintained[m.ID], channels)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) checkOne(ctx context.Context, m *db.Monitor, checkedAt int64, inMaintenance bool, channels []*db.NotificationChannel) {
	log := s.logger.With(zap.Int64("monitor_id", m.ID))

	probeStart := time.Now()
	outcome := s.runProbe(ctx, m)
	probeDuration := time.Since(probeStart)

	prevState, err := s.repo.GetMonitorState(m.ID)
	if err != nil {
		log.Error("failed to load monitor state", zap.Error(err))
		return
	}

	var prev *statemachine.State
	if prevState != nil {
		prev = &statemachine.State{
			Status:               statemachine.Status(prevState.Status),
			LastChangedAt:        deref(prevState.LastChangedAt),
			ConsecutiveFailures:  prevState.ConsecutiveFailures,
			ConsecutiveSuccesses: prevState.ConsecutiveSuccesses,
			LastError:            prevState.LastError,
		}
	}

	result := statemachine.Transition(prev, statemachine.Outcome{
		Status: statemachine.OutcomeStatus(outcome.Status),
		Error:  outcome.Error,
	}, checkedAt)

	s.metrics.RecordCheck(strconv.FormatInt(m.ID, 10), string(m.Type), string(outcome.Status), outcome.Status == probes.StatusUp, probeDuration.Seconds())

	batch := db.CheckBatch{
		Check: db.CheckResult{
			MonitorID:  m.ID,
			CheckedAt:  checkedAt,
			Status:     db.Status(outcome.Status),
			LatencyMs:  outcome.LatencyMs,
			HTTPStatus: outcome.HTTPStatus,
			Error:      outcome.Error,
			Attempt:    outcome.Attempts,
		},
		State: db.MonitorState{
			MonitorID:            m.ID,
			Status:               db.Status(result.Next.Status),
			LastCheckedAt:        &checkedAt,
			LastChangedAt:        &result.Next.LastChangedAt,
			LastLatencyMs:        outcome.LatencyMs,
			LastError:            result.Next.LastError,
			ConsecutiveFailures:  result.Next.ConsecutiveFailures,
			ConsecutiveSuccesses: result.Next.ConsecutiveSuccesses,
		},
		OutageAction: string(result.OutageAction),
		ErrorForOpen: outcome.Error,
		ErrorUpdate:  outcome.Error,
	}

	if err := s.repo.PersistCheckBatch(batch); err != nil {
		log.Error("failed to persist check batch", zap.Error(err))
		return
	}

	if !result.Changed || inMaintenance {
		return
	}

	var prevStatus statemachine.Status
	if prev != nil {
		prevStatus = prev.Status
	}
	eventType := statemachine.ClassifyEvent(prevStatus, result.Next.Status)
	if eventType == "" {
		return
	}

	eventKey := eventKeyFor(m.ID, eventType, checkedAt)
	payload := notify.Payload{
		Event:     string(eventType),
		EventID:   eventKey,
		Timestamp: checkedAt,
		Monitor:   notify.MonitorRef{ID: m.ID, Name: m.Name, Type: string(m.Type), Target: m.Target},
		State: notify.StateRef{
			Status:     string(outcome.Status),
			LatencyMs:  outcome.LatencyMs,
			HTTPStatus: outcome.HTTPStatus,
			Error:      outcome.Error,
		},
	}
	go s.dispatch.Dispatch(eventKey, payload, channels)
}

func (s *Scheduler) runProbe(ctx context.Context, m *db.Monitor) probes.CheckOutcome {
	timeoutMs := m.TimeoutMs
	switch m.Type {
	case db.MonitorTypeHTTP:
		method := "GET"
		if m.HTTPMethod != nil && *m.HTTPMethod != "" {
			method = *m.HTTPMethod
		}
		return s.httpProbe.Check(ctx, probes.HTTPRequest{
			URL:                      m.Target,
			Method:                   method,
			Headers:                  m.HTTPHeaders,
			Body:                     derefStr(m.HTTPBody),
			TimeoutMs:                timeoutMs,
			ExpectedStatus:           m.ExpectedStatus,
			ResponseKeyword:          derefStr(m.ResponseKeyword),
			ResponseForbiddenKeyword: derefStr(m.ResponseForbiddenKeyword),
		})
	case db.MonitorTypeTCP:
		return s.tcpProbe.Check(ctx, probes.TCPRequest{Target: m.Target, TimeoutMs: timeoutMs})
	default:
		msg := "unsupported monitor type"
		return probes.CheckOutcome{Status: probes.StatusUnknown, Error: &msg}
	}
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// eventKeyFor builds the notification dedup key:
// "monitor:<id>:<down|up>:<checkedAt>".
func eventKeyFor(monitorID int64, eventType statemachine.EventType, checkedAt int64) string {
	kind := "down"
	if eventType == statemachine.EventMonitorUp {
		kind = "up"
	}
	return fmt.Sprintf("monitor:%d:%s:%d", monitorID, kind, checkedAt)
}
