// Package policy stores the per-organization remote-control policy.
package policy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no policy row exists for an org on an
// operation that does not create one implicitly.
var ErrNotFound = errors.New("policy not found")

// Defaults applied when a policy is created lazily on first access.
const (
	DefaultIdleTimeoutMinutes = 30
)

// DefaultAllowedRoles returns the roles permitted to request remote
// control when no policy has been configured yet.
func DefaultAllowedRoles() JSONStringSlice {
	return JSONStringSlice{"admin", "technician"}
}

// Store provides database operations for remote-control policies.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the policy table.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&PolicyRecord{})
}

// GetOrCreate returns the policy for an org, inserting the defaults if
// none exists. Safe for concurrent use: a create that loses the race on
// the org unique index re-reads the winner's row.
func (s *Store) GetOrCreate(orgID string) (*PolicyRecord, error) {
	var record PolicyRecord
	err := s.db.Where("org_id = ?", orgID).First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get policy: %w", err)
	}

	record = PolicyRecord{
		ID:                 uuid.New().String(),
		OrgID:              orgID,
		Enabled:            true,
		RequireConsent:     false,
		IdleTimeoutMinutes: DefaultIdleTimeoutMinutes,
		AllowClipboard:     false,
		AllowFileTransfer:  false,
		AllowedRoles:       DefaultAllowedRoles(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing PolicyRecord
			if lookupErr := s.db.Where("org_id = ?", orgID).First(&existing).Error; lookupErr == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("create default policy: %w", err)
	}
	return &record, nil
}

// Update merges the provided patch fields into the org's policy and
// stamps updated_by. Returns ErrNotFound if no policy row exists; rows
// are only created via GetOrCreate.
func (s *Store) Update(orgID string, patch PolicyPatch, updatedBy string) (*PolicyRecord, error) {
	var record PolicyRecord
	err := s.db.Where("org_id = ?", orgID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load policy for update: %w", err)
	}

	if patch.Enabled != nil {
		record.Enabled = *patch.Enabled
	}
	if patch.RequireConsent != nil {
		record.RequireConsent = *patch.RequireConsent
	}
	if patch.IdleTimeoutMinutes != nil {
		record.IdleTimeoutMinutes = *patch.IdleTimeoutMinutes
	}
	if patch.AllowClipboard != nil {
		record.AllowClipboard = *patch.AllowClipboard
	}
	if patch.AllowFileTransfer != nil {
		record.AllowFileTransfer = *patch.AllowFileTransfer
	}
	if patch.AllowedRoles != nil {
		record.AllowedRoles = JSONStringSlice(patch.AllowedRoles)
	}
	record.UpdatedBy = updatedBy

	if err := s.db.Save(&record).Error; err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	return &record, nil
}
