// Package db is the sqlx/lib-pq repository layer over the domain
// entities: hand-written SQL, struct tags for sqlx binding, and small
// Value/Scan adapters for JSON columns — no ORM.
package db

import (
	"database/sql/driver"
	"encoding/json"
)

// MonitorType is the closed set of probe kinds.
type MonitorType string

const (
	MonitorTypeHTTP MonitorType = "http"
	MonitorTypeTCP  MonitorType = "tcp"
)

// Status is the closed set of monitor/check statuses, shared across
// MonitorState and CheckResult. Unrecognized values coerce to "unknown" at
// read boundaries.
type Status string

const (
	StatusUp          Status = "up"
	StatusDown        Status = "down"
	StatusMaintenance Status = "maintenance"
	StatusPaused      Status = "paused"
	StatusUnknown     Status = "unknown"
)

// Scan coerces any stored value outside the closed set to StatusUnknown.
func (s *Status) Scan(value interface{}) error {
	raw, _ := value.(string)
	if b, ok := value.([]byte); ok {
		raw = string(b)
	}
	switch v := Status(raw); v {
	case StatusUp, StatusDown, StatusMaintenance, StatusPaused:
		*s = v
	default:
		*s = StatusUnknown
	}
	return nil
}

// IntSlice adapts a JSONB integer-array column (expected_status,
// latency_histogram_json) to a Go slice.
type IntSlice []int

func (s IntSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *IntSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return nil
}

// StringMap adapts a JSONB header/config map column.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return nil
}

// JSONB is a generic JSON document column adapter.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// Monitor is the operator-configured probe target.
type Monitor struct {
	ID                       int64       `db:"id" json:"id"`
	Name                     string      `db:"name" json:"name"`
	Type                     MonitorType `db:"type" json:"type"`
	Target                   string      `db:"target" json:"target"`
	IntervalSec              int         `db:"interval_sec" json:"interval_sec"`
	TimeoutMs                int         `db:"timeout_ms" json:"timeout_ms"`
	IsActive                 bool        `db:"is_active" json:"is_active"`
	CreatedAt                int64       `db:"created_at" json:"created_at"`
	UpdatedAt                int64       `db:"updated_at" json:"updated_at"`
	HTTPMethod               *string     `db:"http_method" json:"http_method,omitempty"`
	HTTPHeaders              StringMap   `db:"http_headers" json:"http_headers,omitempty"`
	HTTPBody                 *string     `db:"http_body" json:"http_body,omitempty"`
	ExpectedStatus           IntSlice    `db:"expected_status" json:"expected_status,omitempty"`
	ResponseKeyword          *string     `db:"response_keyword" json:"response_keyword,omitempty"`
	ResponseForbiddenKeyword *string     `db:"response_forbidden_keyword" json:"response_forbidden_keyword,omitempty"`
}

// MonitorState is the single-row-per-monitor live status.
type MonitorState struct {
	MonitorID            int64   `db:"monitor_id" json:"monitor_id"`
	Status               Status  `db:"status" json:"status"`
	LastCheckedAt        *int64  `db:"last_checked_at" json:"last_checked_at,omitempty"`
	LastChangedAt        *int64  `db:"last_changed_at" json:"last_changed_at,omitempty"`
	LastLatencyMs        *int64  `db:"last_latency_ms" json:"last_latency_ms,omitempty"`
	LastError            *string `db:"last_error" json:"last_error,omitempty"`
	ConsecutiveFailures  int     `db:"consecutive_failures" json:"consecutive_failures"`
	ConsecutiveSuccesses int     `db:"consecutive_successes" json:"consecutive_successes"`
}

// CheckResult is one executed probe, append-only.
type CheckResult struct {
	ID         int64   `db:"id" json:"id"`
	MonitorID  int64   `db:"monitor_id" json:"monitor_id"`
	CheckedAt  int64   `db:"checked_at" json:"checked_at"`
	Status     Status  `db:"status" json:"status"`
	LatencyMs  *int64  `db:"latency_ms" json:"latency_ms,omitempty"`
	HTTPStatus *int    `db:"http_status" json:"http_status,omitempty"`
	Error      *string `db:"error" json:"error,omitempty"`
	Attempt    int     `db:"attempt" json:"attempt"`
	// Location is always null today; retained for a future geo-distributed
	// prober to populate.
	Location *string `db:"location" json:"location,omitempty"`
}

// Outage is a contiguous down interval. EndedAt is nil while ongoing.
type Outage struct {
	ID           int64   `db:"id" json:"id"`
	MonitorID    int64   `db:"monitor_id" json:"monitor_id"`
	StartedAt    int64   `db:"started_at" json:"started_at"`
	EndedAt      *int64  `db:"ended_at" json:"ended_at,omitempty"`
	InitialError *string `db:"initial_error" json:"initial_error,omitempty"`
	LastError    *string `db:"last_error" json:"last_error,omitempty"`
}

// IncidentStatus is the closed progression of an incident.
type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

// Impact is the closed severity set for an incident.
type Impact string

const (
	ImpactNone     Impact = "none"
	ImpactMinor    Impact = "minor"
	ImpactMajor    Impact = "major"
	ImpactCritical Impact = "critical"
)

// Incident is an operator-authored disruption narrative.
type Incident struct {
	ID         int64          `db:"id" json:"id"`
	Title      string         `db:"title" json:"title"`
	Status     IncidentStatus `db:"status" json:"status"`
	Impact     Impact         `db:"impact" json:"impact"`
	Message    *string        `db:"message" json:"message,omitempty"`
	StartedAt  int64          `db:"started_at" json:"started_at"`
	ResolvedAt *int64         `db:"resolved_at" json:"resolved_at,omitempty"`
}

// IncidentMonitor links an incident to a monitor (many-to-many).
type IncidentMonitor struct {
	IncidentID int64 `db:"incident_id"`
	MonitorID  int64 `db:"monitor_id"`
}

// IncidentUpdate is an append-only narrative entry on an incident.
type IncidentUpdate struct {
	ID         int64           `db:"id" json:"id"`
	IncidentID int64           `db:"incident_id" json:"incident_id"`
	Status     *IncidentStatus `db:"status" json:"status,omitempty"`
	Message    string          `db:"message" json:"message"`
	CreatedAt  int64           `db:"created_at" json:"created_at"`
}

// MaintenanceWindow is an operator-declared suppression window.
type MaintenanceWindow struct {
	ID        int64   `db:"id" json:"id"`
	Title     string  `db:"title" json:"title"`
	Message   *string `db:"message" json:"message,omitempty"`
	StartsAt  int64   `db:"starts_at" json:"starts_at"`
	EndsAt    int64   `db:"ends_at" json:"ends_at"`
	CreatedAt int64   `db:"created_at" json:"created_at"`
}

// MaintenanceMonitor links a maintenance window to a monitor.
type MaintenanceMonitor struct {
	MaintenanceWindowID int64 `db:"maintenance_window_id"`
	MonitorID           int64 `db:"monitor_id"`
}

// ChannelType is the closed set of notification channel kinds. Only
// "webhook" is implemented today.
type ChannelType string

const ChannelTypeWebhook ChannelType = "webhook"

// ChannelSigning describes optional HMAC signing of outbound webhook
// bodies.
type ChannelSigning struct {
	Enabled   bool   `json:"enabled"`
	SecretRef string `json:"secret_ref,omitempty"`
}

// ChannelConfig is the webhook delivery configuration.
type ChannelConfig struct {
	URL         string            `json:"url"`
	Method      string            `json:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	TimeoutMs   int               `json:"timeout_ms,omitempty"`
	PayloadType string            `json:"payload_type,omitempty"`
	Signing     *ChannelSigning   `json:"signing,omitempty"`
}

func (c ChannelConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ChannelConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return nil
}

// NotificationChannel is a configured webhook delivery target.
type NotificationChannel struct {
	ID        int64         `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Type      ChannelType   `db:"type" json:"type"`
	Config    ChannelConfig `db:"config" json:"config"`
	IsActive  bool          `db:"is_active" json:"is_active"`
	CreatedAt int64         `db:"created_at" json:"created_at"`
}

// DeliveryStatus is the closed set of delivery outcomes.
type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// NotificationDelivery records one delivery attempt, deduplicated on the
// unique (event_key, channel_id) pair.
type NotificationDelivery struct {
	ID         int64          `db:"id" json:"id"`
	EventKey   string         `db:"event_key" json:"event_key"`
	ChannelID  int64          `db:"channel_id" json:"channel_id"`
	Status     DeliveryStatus `db:"status" json:"status"`
	HTTPStatus *int           `db:"http_status" json:"http_status,omitempty"`
	Error      *string        `db:"error" json:"error,omitempty"`
	CreatedAt  int64          `db:"created_at" json:"created_at"`
}

// MonitorDailyRollup is the per-monitor per-day summary row produced by the
// daily rollup job. LatencyHistogram is stored as a JSON array of bucket
// counts so multi-day percentiles can be derived by element-wise sum.
type MonitorDailyRollup struct {
	MonitorID         int64    `db:"monitor_id" json:"monitor_id"`
	DayStartAt        int64    `db:"day_start_at" json:"day_start_at"`
	TotalSec          int64    `db:"total_sec" json:"total_sec"`
	DowntimeSec       int64    `db:"downtime_sec" json:"downtime_sec"`
	UnknownSec        int64    `db:"unknown_sec" json:"unknown_sec"`
	UptimeSec         int64    `db:"uptime_sec" json:"uptime_sec"`
	ChecksTotal       int      `db:"checks_total" json:"checks_total"`
	ChecksUp          int      `db:"checks_up" json:"checks_up"`
	ChecksDown        int      `db:"checks_down" json:"checks_down"`
	ChecksUnknown     int      `db:"checks_unknown" json:"checks_unknown"`
	ChecksMaintenance int      `db:"checks_maintenance" json:"checks_maintenance"`
	AvgLatencyMs      *int64   `db:"avg_latency_ms" json:"avg_latency_ms,omitempty"`
	P50               *int64   `db:"p50" json:"p50,omitempty"`
	P95               *int64   `db:"p95" json:"p95,omitempty"`
	LatencyHistogram  IntSlice `db:"latency_histogram_json" json:"latency_histogram"`
}

// Lock is a coarse mutual-exclusion lease row.
type Lock struct {
	Name      string `db:"name"`
	ExpiresAt int64  `db:"expires_at"`
}

// Snapshot is the cached public status payload.
type Snapshot struct {
	Key         string `db:"key"`
	GeneratedAt int64  `db:"generated_at"`
	BodyJSON    []byte `db:"body_json"`
	UpdatedAt   int64  `db:"updated_at"`
}
