package db

// TryAcquireLock attempts to take or renew a named lease, succeeding only
// if no lock row exists for name or the existing one has already expired
// as of now. The upsert's WHERE clause is the entire
// mutual-exclusion guarantee: a concurrent caller's conflicting insert
// loses the race at the unique constraint and its UPDATE... WHERE
// matches zero rows.
func (r *Repository) TryAcquireLock(name string, now, expiresAt int64) (bool, error) {
	res, err := r.db.Exec(`
	INSERT INTO locks (name, expires_at) VALUES ($1, $2)
	ON CONFLICT (name) DO UPDATE SET expires_at = $2
	WHERE locks.expires_at <= $3`,
	name, expiresAt, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) ReleaseLock(name string) error {
	_, err := r.db.Exec(`DELETE FROM locks WHERE name = $1`, name)
	return err
}
