package db

import "database/sql"

// GetSnapshot returns the cached public status payload for key, or nil if
// none has been generated yet.
func (r *Repository) GetSnapshot(key string) (*Snapshot, error) {
	var s Snapshot
	err := r.db.Get(&s, `SELECT * FROM public_snapshots WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &s, err
}

func (r *Repository) PutSnapshot(s *Snapshot) error {
	_, err := r.db.Exec(`
	INSERT INTO public_snapshots (key, generated_at, body_json, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (key) DO UPDATE SET
	generated_at = EXCLUDED.generated_at,
	body_json = EXCLUDED.body_json,
	updated_at = EXCLUDED.updated_at`,
	s.Key, s.GeneratedAt, s.BodyJSON, s.UpdatedAt)
	return err
}
