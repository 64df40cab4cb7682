// Package audit keeps the append-only ledger of session lifecycle
// events. Entries are never updated or deleted.
package audit

import (
	"fmt"
	"time"
)

// Action is the closed set of auditable lifecycle events. Unknown
// actions are rejected at entry construction, never appended.
type Action string

const (
	ActionSessionStart   Action = "session_start"
	ActionSessionEnd     Action = "session_end"
	ActionSessionFailed  Action = "session_failed"
	ActionConsentGranted Action = "consent_granted"
	ActionConsentDenied  Action = "consent_denied"
)

// knownActions is the validation set for NewEntry.
var knownActions = map[Action]struct{}{
	ActionSessionStart:   {},
	ActionSessionEnd:     {},
	ActionSessionFailed:  {},
	ActionConsentGranted: {},
	ActionConsentDenied:  {},
}

// Valid reports whether the action is a member of the closed set.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// EntryRecord is an immutable audit ledger row.
type EntryRecord struct {
	ID             string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	OrgID          string    `gorm:"column:org_id;index:idx_audit_org_time,priority:1;not null"`
	SessionID      string    `gorm:"column:session_id;index:idx_audit_session;not null"`
	AssetID        string    `gorm:"column:asset_id;index"`
	OperatorUserID string    `gorm:"column:operator_user_id;index"`
	Action         string    `gorm:"column:action;not null"`
	Details        string    `gorm:"column:details"`
	IPAddress      string    `gorm:"column:ip_address"`
	CreatedAt      time.Time `gorm:"column:created_at;index:idx_audit_org_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (EntryRecord) TableName() string { return "session_audit_log" }

// Entry is the validated, not-yet-persisted form of a ledger event.
type Entry struct {
	OrgID          string
	SessionID      string
	AssetID        string
	OperatorUserID string
	Action         Action
	Details        string
	IPAddress      string
}

// NewEntry validates the action against the closed set and returns an
// Entry ready to append.
func NewEntry(orgID, sessionID string, action Action) (*Entry, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown audit action: %q", action)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("audit entry requires a session id")
	}
	return &Entry{OrgID: orgID, SessionID: sessionID, Action: action}, nil
}

// APIEntry is the API-facing audit event.
type APIEntry struct {
	ID             string `json:"id"`
	SessionID      string `json:"sessionId"`
	AssetID        string `json:"assetId,omitempty"`
	OperatorUserID string `json:"operatorUserId,omitempty"`
	Action         string `json:"action"`
	Details        string `json:"details,omitempty"`
	IPAddress      string `json:"ipAddress,omitempty"`
	CreatedAt      string `json:"createdAt"` // RFC3339
}

// APIEntryList is a paginated list of audit events.
type APIEntryList struct {
	Entries       []APIEntry `json:"entries"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
	TotalSize     int        `json:"totalSize"`
}

// toAPI converts a record to the API-facing representation.
func toAPI(r *EntryRecord) APIEntry {
	return APIEntry{
		ID:             r.ID,
		SessionID:      r.SessionID,
		AssetID:        r.AssetID,
		OperatorUserID: r.OperatorUserID,
		Action:         r.Action,
		Details:        r.Details,
		IPAddress:      r.IPAddress,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339Nano),
	}
}
