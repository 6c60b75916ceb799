// Package lock wraps the locks-table lease pattern shared by the
// scheduler tick and the daily rollup: a conditional upsert gated on
// expires_at <= now acts as a compare-and-swap, so only one process at a
// time holds a given named lease.
package lock

import "github.com/leozw/uptime-guardian/internal/db"

// Leaser acquires and releases named leases against the locks table.
type Leaser struct {
	repo *db.Repository
}

func NewLeaser(repo *db.Repository) *Leaser {
	return &Leaser{repo: repo}
}

// Acquire attempts to take name for durationSec starting at now. It
// returns false, nil (not an error) when another holder's lease is still
// live — the caller is expected to skip this tick or this rollup run.
func (l *Leaser) Acquire(name string, now int64, durationSec int64) (bool, error) {
	return l.repo.TryAcquireLock(name, now, now+durationSec)
}

// Release drops the lease early. Scheduler ticks and rollups don't call
// this in the normal path — the lease is left to expire naturally so a
// crashed holder doesn't need anyone else to clean up after it — but it's
// available for tests and for an operator-triggered abort.
func (l *Leaser) Release(name string) error {
	return l.repo.ReleaseLock(name)
}
