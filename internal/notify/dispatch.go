// Package notify implements notification dispatch: for each active webhook
// channel, an idempotent delivery-row insert guards at-most-once delivery,
// then a request is sent with the channel's method (POST by default) under
// the channel's own timeout, HMAC-signed only when the channel enables
// signing. Dispatch runs synchronously but never fails the caller — every
// error is logged and swallowed, so a notification failure never
// propagates back into the check pipeline.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/leozw/uptime-guardian/internal/db"
	"github.com/leozw/uptime-guardian/internal/metrics"
	"github.com/leozw/uptime-guardian/internal/secretstore"
	"go.uber.org/zap"
)

const defaultTimeoutMs = 5000

// MonitorRef is the reduced monitor shape embedded in a notification
// payload.
type MonitorRef struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target"`
}

// StateRef is the reduced check-state shape embedded in a notification
// payload.
type StateRef struct {
	Status     string  `json:"status"`
	LatencyMs  *int64  `json:"latency_ms,omitempty"`
	HTTPStatus *int    `json:"http_status,omitempty"`
	Error      *string `json:"error,omitempty"`
	Location   *string `json:"location,omitempty"`
}

// Payload is the outbound webhook body.
type Payload struct {
	Event     string     `json:"event"`
	EventID   string     `json:"event_id"`
	Timestamp int64      `json:"timestamp"`
	Monitor   MonitorRef `json:"monitor"`
	State     StateRef   `json:"state"`
}

type Dispatcher struct {
	repo    *db.Repository
	secrets secretstore.Store
	metrics *metrics.Collector
	logger  *zap.Logger
	client  *http.Client
}

func NewDispatcher(repo *db.Repository, secrets secretstore.Store, m *metrics.Collector, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:    repo,
		secrets: secrets,
		metrics: m,
		logger:  logger,
		client:  &http.Client{},
	}
}

// Dispatch fans the event out to every channel in channels. eventKey is
// "monitor:<id>:<down|up>:<checkedAt>". Failures are logged and never
// returned to the caller.
func (d *Dispatcher) Dispatch(eventKey string, payload Payload, channels []*db.NotificationChannel) {
	for _, ch := range channels {
		d.dispatchOne(eventKey, payload, ch)
	}
}

func (d *Dispatcher) dispatchOne(eventKey string, payload Payload, ch *db.NotificationChannel) {
	start := time.Now()
	log := d.logger.With(zap.String("event_key", eventKey), zap.Int64("channel_id", ch.ID))

	placeholder := &db.NotificationDelivery{
		EventKey:  eventKey,
		ChannelID: ch.ID,
		Status:    db.DeliveryFailed,
		CreatedAt: payload.Timestamp,
	}
	inserted, err := d.repo.RecordDelivery(placeholder)
	if err != nil {
		log.Error("failed to record delivery placeholder", zap.Error(err))
		return
	}
	if !inserted {
		log.Debug("delivery already recorded, skipping")
		return
	}

	status, httpStatus, deliverErr := d.send(ch, payload)
	latency := time.Since(start).Seconds()
	d.metrics.RecordNotification(fmt.Sprint(ch.ID), status == db.DeliverySuccess, latency)

	var errMsg *string
	if deliverErr != nil {
		msg := deliverErr.Error()
		errMsg = &msg
		log.Warn("webhook delivery failed", zap.Error(deliverErr), zap.Duration("elapsed", time.Since(start)))
	}

	final := &db.NotificationDelivery{
		EventKey:   eventKey,
		ChannelID:  ch.ID,
		Status:     status,
		HTTPStatus: httpStatus,
		Error:      errMsg,
		CreatedAt:  payload.Timestamp,
	}
	// The placeholder already claimed the (event_key, channel_id) slot; this
	// finalizing write updates it in place rather than inserting again.
	if err := d.repo.FinalizeDelivery(final); err != nil {
		log.Error("failed to finalize delivery row", zap.Error(err))
	}
}

func (d *Dispatcher) send(ch *db.NotificationChannel, payload Payload) (db.DeliveryStatus, *int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return db.DeliveryFailed, nil, fmt.Errorf("marshal payload: %w", err)
	}

	method := ch.Config.Method
	if method == "" {
		method = http.MethodPost
	}
	timeoutMs := ch.Config.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = defaultTimeoutMs
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, ch.Config.URL, bytes.NewReader(body))
	if err != nil {
		return db.DeliveryFailed, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range ch.Config.Headers {
		req.Header.Set(k, v)
	}

	if ch.Config.Signing != nil && ch.Config.Signing.Enabled {
		secret, err := d.secrets.Resolve(ch.Config.Signing.SecretRef)
		if err != nil {
			return db.DeliveryFailed, nil, fmt.Errorf("resolve signing secret: %w", err)
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		req.Header.Set("X-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return db.DeliveryFailed, nil, fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	httpStatus := resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return db.DeliverySuccess, &httpStatus, nil
	}
	return db.DeliveryFailed, &httpStatus, fmt.Errorf("webhook returned status %d", resp.StatusCode)
}
