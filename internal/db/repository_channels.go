package db

import "database/sql"

func (r *Repository) CreateChannel(c *NotificationChannel) error {
	return r.db.Get(&c.ID, `
	INSERT INTO notification_channels (name, type, config, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5) RETURNING id`,
	c.Name, c.Type, c.Config, c.IsActive, c.CreatedAt)
}

func (r *Repository) GetChannel(id int64) (*NotificationChannel, error) {
	var c NotificationChannel
	err := r.db.Get(&c, `SELECT * FROM notification_channels WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &c, err
}

func (r *Repository) ListChannels() ([]*NotificationChannel, error) {
	channels := []*NotificationChannel{}
	err := r.db.Select(&channels, `SELECT * FROM notification_channels ORDER BY id ASC`)
	return channels, err
}

func (r *Repository) ListActiveChannels() ([]*NotificationChannel, error) {
	channels := []*NotificationChannel{}
	err := r.db.Select(&channels, `SELECT * FROM notification_channels WHERE is_active = true ORDER BY id ASC`)
	return channels, err
}

func (r *Repository) UpdateChannel(c *NotificationChannel) error {
	_, err := r.db.Exec(`
	UPDATE notification_channels SET name = $2, type = $3, config = $4, is_active = $5
	WHERE id = $1`, c.ID, c.Name, c.Type, c.Config, c.IsActive)
	return err
}

func (r *Repository) DeleteChannel(id int64) error {
	_, err := r.db.Exec(`DELETE FROM notification_channels WHERE id = $1`, id)
	return err
}

// RecordDelivery inserts a delivery attempt, skipping silently if
// (event_key, channel_id) was already recorded. This is the at-most-once
// guard: ON CONFLICT DO NOTHING means a retried or
// double-scheduled dispatch never produces a second delivery row, and the
// caller can tell whether its attempt was the one that "won" by checking
// RowsAffected.
func (r *Repository) RecordDelivery(d *NotificationDelivery) (inserted bool, err error) {
	res, err := r.db.Exec(`
	INSERT INTO notification_deliveries (event_key, channel_id, status, http_status, error, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (event_key, channel_id) DO NOTHING`,
	d.EventKey, d.ChannelID, d.Status, d.HTTPStatus, d.Error, d.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FinalizeDelivery overwrites the placeholder row RecordDelivery inserted,
// setting its real outcome. Safe to call even if the placeholder's status
// hasn't changed.
func (r *Repository) FinalizeDelivery(d *NotificationDelivery) error {
	_, err := r.db.Exec(`
	UPDATE notification_deliveries SET status = $3, http_status = $4, error = $5
	WHERE event_key = $1 AND channel_id = $2`,
	d.EventKey, d.ChannelID, d.Status, d.HTTPStatus, d.Error)
	return err
}

// DeliveryExists reports whether an event has already been delivered (or
// attempted) on a channel, for idempotent dispatch pre-checks.
func (r *Repository) DeliveryExists(eventKey string, channelID int64) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `
	SELECT EXISTS(SELECT 1 FROM notification_deliveries WHERE event_key = $1 AND channel_id = $2)`,
	eventKey, channelID)
	return exists, err
}

func (r *Repository) ListDeliveries(channelID int64, limit int) ([]*NotificationDelivery, error) {
	deliveries := []*NotificationDelivery{}
	err := r.db.Select(&deliveries, `
	SELECT * FROM notification_deliveries WHERE channel_id = $1
	ORDER BY id DESC LIMIT $2`, channelID, limit)
	return deliveries, err
}
