package publicstatus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/metrics"
	"go.uber.org/zap"
)

const snapshotKey = "status"

// MaxAgeSeconds is the age past which a cached snapshot is treated as a
// miss and rebuilt synchronously.
const MaxAgeSeconds = 60

// RefreshAgeSeconds is the age at which a read-hit still triggers a
// background refresh while serving the current payload.
const RefreshAgeSeconds = 30

// Store is the snapshot cache sitting in front of Builder.
type Store struct {
	repo    *db.Repository
	builder *Builder
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewStore(repo *db.Repository, builder *Builder, m *metrics.Collector, logger *zap.Logger) *Store {
	return &Store{repo: repo, builder: builder, metrics: m, logger: logger}
}

// Read serves the cached payload if fresh, rebuilding on a miss and
// kicking off a background refresh on a stale-but-usable hit.
func (s *Store) Read(ctx context.Context, now int64) (*Response, int64, error) {
	row, err := s.repo.GetSnapshot(snapshotKey)
	if err != nil {
		return nil, 0, err
	}
	if row == nil {
		return s.rebuildAndServe(now)
	}

	age := now - row.GeneratedAt
	if age < 0 {
		age = 0
	}
	s.metrics.RecordSnapshotAge(snapshotKey, float64(age))

	if age > MaxAgeSeconds {
		return s.rebuildAndServe(now)
	}

	var resp Response
	if err := json.Unmarshal(row.BodyJSON, &resp); err != nil {
		return s.rebuildAndServe(now)
	}

	if age >= RefreshAgeSeconds {
		go s.backgroundRefresh(now)
	}

	return &resp, age, nil
}

func (s *Store) rebuildAndServe(now int64) (*Response, int64, error) {
	resp, err := s.builder.Build(now)
	if err != nil {
		return nil, 0, err
	}
	go s.write(resp, now)
	return resp, 0, nil
}

func (s *Store) backgroundRefresh(now int64) {
	resp, err := s.builder.Build(now)
	if err != nil {
		s.logger.Warn("background snapshot refresh failed", zap.Error(err))
		return
	}
	s.write(resp, now)
}

func (s *Store) write(resp *Response, now int64) {
	body, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal snapshot", zap.Error(err))
		return
	}
	row := &db.Snapshot{Key: snapshotKey, GeneratedAt: resp.GeneratedAt, BodyJSON: body, UpdatedAt: now}
	if err := s.repo.PutSnapshot(row); err != nil {
		s.logger.Error("failed to write snapshot", zap.Error(err))
	}
}

// Refresh implements scheduler.SnapshotRefresher: an unconditional
// best-effort rebuild-and-write after every tick.
func (s *Store) Refresh(ctx context.Context, now int64) error {
	resp, err := s.builder.Build(now)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}
	s.write(resp, now)
	return nil
}

// CacheControl derives the Cache-Control header: max-age capped at 30,
// stale-while-revalidate and stale-if-error each filling the remainder of
// the freshness budget left after max-age (e.g. age=5 yields max-age=30,
// stale-while-revalidate=25, stale-if-error=25).
func CacheControl(age int64) string {
	remaining := MaxAgeSeconds - age
	if remaining < 0 {
		remaining = 0
	}
	maxAge := remaining
	if maxAge > 30 {
		maxAge = 30
	}
	rest := remaining - maxAge
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d, stale-if-error=%d", maxAge, rest, rest)
}
