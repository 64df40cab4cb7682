package policy

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONStringSlice is a custom GORM type for []string stored as JSON.
type JSONStringSlice []string

// Scan implements the sql.Scanner interface for JSONStringSlice.
func (s *JSONStringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONStringSlice: %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for JSONStringSlice.
func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains reports whether the slice contains the given value.
func (s JSONStringSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// PolicyRecord stores the remote-control policy for an organization.
// Exactly one live record exists per org; it is created lazily with
// defaults on first access and mutated only via explicit update.
type PolicyRecord struct {
	ID                 string          `gorm:"primaryKey;column:id;type:varchar(36)"`
	OrgID              string          `gorm:"column:org_id;uniqueIndex:idx_policy_org;not null"`
	Enabled            bool            `gorm:"column:enabled;not null"`
	RequireConsent     bool            `gorm:"column:require_consent;not null"`
	IdleTimeoutMinutes int             `gorm:"column:idle_timeout_minutes;not null"`
	AllowClipboard     bool            `gorm:"column:allow_clipboard;not null"`
	AllowFileTransfer  bool            `gorm:"column:allow_file_transfer;not null"`
	AllowedRoles       JSONStringSlice `gorm:"column:allowed_roles;type:text"`
	UpdatedBy          string          `gorm:"column:updated_by"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (PolicyRecord) TableName() string { return "remote_control_policies" }

// PolicyPatch carries a partial policy update. Nil fields are left
// unchanged by Update.
type PolicyPatch struct {
	Enabled            *bool    `json:"enabled,omitempty"`
	RequireConsent     *bool    `json:"requireConsent,omitempty"`
	IdleTimeoutMinutes *int     `json:"idleTimeoutMinutes,omitempty"`
	AllowClipboard     *bool    `json:"allowClipboard,omitempty"`
	AllowFileTransfer  *bool    `json:"allowFileTransfer,omitempty"`
	AllowedRoles       []string `json:"allowedRoles,omitempty"`
}

// Policy is the API-facing policy representation.
type Policy struct {
	OrgID              string   `json:"orgId"`
	Enabled            bool     `json:"enabled"`
	RequireConsent     bool     `json:"requireConsent"`
	IdleTimeoutMinutes int      `json:"idleTimeoutMinutes"`
	AllowClipboard     bool     `json:"allowClipboard"`
	AllowFileTransfer  bool     `json:"allowFileTransfer"`
	AllowedRoles       []string `json:"allowedRoles"`
	UpdatedBy          string   `json:"updatedBy,omitempty"`
	UpdatedAt          string   `json:"updatedAt,omitempty"` // RFC3339
}

// toAPI converts a record to the API-facing representation.
func toAPI(r *PolicyRecord) Policy {
	return Policy{
		OrgID:              r.OrgID,
		Enabled:            r.Enabled,
		RequireConsent:     r.RequireConsent,
		IdleTimeoutMinutes: r.IdleTimeoutMinutes,
		AllowClipboard:     r.AllowClipboard,
		AllowFileTransfer:  r.AllowFileTransfer,
		AllowedRoles:       r.AllowedRoles,
		UpdatedBy:          r.UpdatedBy,
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
}
