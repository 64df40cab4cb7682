// Package session owns the remote-control session state machine, the
// per-asset exclusivity invariant, and the consent flow on top of it.
package session

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opsdeck/remote-broker/pkg/policy"
	"github.com/opsdeck/remote-broker/pkg/telemetry"
)

// PolicySnapshot is the immutable copy of the org policy captured at
// session creation. Later policy edits never alter a running session's
// permitted capabilities.
type PolicySnapshot struct {
	RequireConsent     bool     `json:"requireConsent"`
	IdleTimeoutMinutes int      `json:"idleTimeoutMinutes"`
	AllowClipboard     bool     `json:"allowClipboard"`
	AllowFileTransfer  bool     `json:"allowFileTransfer"`
	AllowedRoles       []string `json:"allowedRoles"`
}

// SnapshotOf captures the policy fields relevant to a running session.
func SnapshotOf(p *policy.PolicyRecord) PolicySnapshot {
	return PolicySnapshot{
		RequireConsent:     p.RequireConsent,
		IdleTimeoutMinutes: p.IdleTimeoutMinutes,
		AllowClipboard:     p.AllowClipboard,
		AllowFileTransfer:  p.AllowFileTransfer,
		AllowedRoles:       p.AllowedRoles,
	}
}

// Scan implements the sql.Scanner interface for PolicySnapshot.
func (ps *PolicySnapshot) Scan(value any) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for PolicySnapshot: %T", value)
	}
	return json.Unmarshal(bytes, ps)
}

// Value implements the driver.Valuer interface for PolicySnapshot.
func (ps PolicySnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(ps)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// SessionRecord is the persisted session row.
//
// ExclusivityKey backs the per-asset mutual-exclusion invariant: it is
// set to "orgID/assetID" while the session is open (pending or active)
// and cleared on the terminal transition. The unique index makes a
// second open session for the same asset a constraint violation at
// insert time, so concurrent creates are serialized by the store, not
// by application-level read-then-write.
type SessionRecord struct {
	ID              string            `gorm:"primaryKey;column:id;type:varchar(36)"`
	OrgID           string            `gorm:"column:org_id;index:idx_sessions_org_started,priority:1;not null"`
	AssetID         string            `gorm:"column:asset_id;index;not null"`
	OperatorUserID  string            `gorm:"column:operator_user_id;index;not null"`
	OperatorName    string            `gorm:"column:operator_name"`
	Status          string            `gorm:"column:status;index;not null"`
	ExclusivityKey  *string           `gorm:"column:exclusivity_key;uniqueIndex:idx_sessions_exclusive"`
	StartedAt       time.Time         `gorm:"column:started_at;index:idx_sessions_org_started,priority:2;autoCreateTime"`
	EndedAt         *time.Time        `gorm:"column:ended_at"`
	DurationSeconds *int64            `gorm:"column:duration_seconds"`
	ConsentRequired bool              `gorm:"column:consent_required;not null"`
	ConsentGranted  *bool             `gorm:"column:consent_granted"`
	ConsentBy       string            `gorm:"column:consent_by"`
	ConsentAt       *time.Time        `gorm:"column:consent_at"`
	IPAddress       string            `gorm:"column:ip_address"`
	UserAgent       string            `gorm:"column:user_agent"`
	PolicySnapshot  PolicySnapshot    `gorm:"column:policy_snapshot;type:text"`
	QualityMetrics  *telemetry.Sample `gorm:"column:quality_metrics;type:text"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (SessionRecord) TableName() string { return "remote_sessions" }

// exclusivityKey builds the open-session reservation key for an asset.
func exclusivityKey(orgID, assetID string) string {
	return orgID + "/" + assetID
}

// Session is the API-facing session representation.
type Session struct {
	ID              string            `json:"id"`
	AssetID         string            `json:"assetId"`
	OrgID           string            `json:"orgId"`
	OperatorUserID  string            `json:"operatorUserId"`
	OperatorName    string            `json:"operatorName,omitempty"`
	Status          Status            `json:"status"`
	StartedAt       string            `json:"startedAt"` // RFC3339
	EndedAt         string            `json:"endedAt,omitempty"`
	DurationSeconds *int64            `json:"durationSeconds,omitempty"`
	ConsentRequired bool              `json:"consentRequired"`
	ConsentGranted  *bool             `json:"consentGranted,omitempty"`
	ConsentBy       string            `json:"consentBy,omitempty"`
	ConsentAt       string            `json:"consentAt,omitempty"`
	IPAddress       string            `json:"ipAddress,omitempty"`
	UserAgent       string            `json:"userAgent,omitempty"`
	PolicySnapshot  PolicySnapshot    `json:"policySnapshot"`
	QualityMetrics  *telemetry.Sample `json:"qualityMetrics,omitempty"`
}

// toAPI converts a record to the API-facing representation.
func toAPI(r *SessionRecord) Session {
	s := Session{
		ID:              r.ID,
		AssetID:         r.AssetID,
		OrgID:           r.OrgID,
		OperatorUserID:  r.OperatorUserID,
		OperatorName:    r.OperatorName,
		Status:          Status(r.Status),
		StartedAt:       r.StartedAt.Format(time.RFC3339),
		DurationSeconds: r.DurationSeconds,
		ConsentRequired: r.ConsentRequired,
		ConsentGranted:  r.ConsentGranted,
		ConsentBy:       r.ConsentBy,
		IPAddress:       r.IPAddress,
		UserAgent:       r.UserAgent,
		PolicySnapshot:  r.PolicySnapshot,
		QualityMetrics:  r.QualityMetrics,
	}
	if r.EndedAt != nil {
		s.EndedAt = r.EndedAt.Format(time.RFC3339)
	}
	if r.ConsentAt != nil {
		s.ConsentAt = r.ConsentAt.Format(time.RFC3339)
	}
	return s
}

// SessionList is a paginated list of sessions.
type SessionList struct {
	Sessions      []Session `json:"sessions"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
	TotalSize     int       `json:"totalSize"`
}
