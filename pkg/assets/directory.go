// Package assets exposes a read-only view of the asset inventory. The
// inventory itself is owned by an external system; the broker only needs
// the remote-control capability flag for authorization checks.
package assets

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when an asset does not exist for the org.
var ErrNotFound = errors.New("asset not found")

// Directory answers asset capability lookups.
type Directory interface {
	// RemoteControlCapability returns the asset's remote-control flag.
	// Returns ErrNotFound when the asset does not exist for the org.
	RemoteControlCapability(orgID, assetID string) (bool, error)
}

// AssetRecord is the inventory row shape the broker reads. The broker
// never writes this table.
type AssetRecord struct {
	ID                   string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	OrgID                string    `gorm:"column:org_id;index:idx_assets_org;not null"`
	Name                 string    `gorm:"column:name"`
	RemoteControlEnabled bool      `gorm:"column:remote_control_enabled;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (AssetRecord) TableName() string { return "assets" }

// DBDirectory is a Directory backed by the shared inventory database.
type DBDirectory struct {
	db *gorm.DB
}

// NewDBDirectory creates a DBDirectory.
func NewDBDirectory(db *gorm.DB) *DBDirectory {
	return &DBDirectory{db: db}
}

// AutoMigrate creates or updates the assets table. Intended for
// embedded deployments and tests where no external inventory owns it.
func (d *DBDirectory) AutoMigrate() error {
	return d.db.AutoMigrate(&AssetRecord{})
}

// RemoteControlCapability implements Directory.
func (d *DBDirectory) RemoteControlCapability(orgID, assetID string) (bool, error) {
	var record AssetRecord
	err := d.db.Where("org_id = ? AND id = ?", orgID, assetID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("get asset: %w", err)
	}
	return record.RemoteControlEnabled, nil
}

// StaticDirectory is an in-memory Directory keyed by org/asset id.
// Useful for tests and single-process setups.
type StaticDirectory struct {
	capabilities map[string]bool
}

// NewStaticDirectory creates a StaticDirectory.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{capabilities: make(map[string]bool)}
}

// Add registers an asset with the given capability flag.
func (d *StaticDirectory) Add(orgID, assetID string, remoteControl bool) {
	d.capabilities[orgID+"/"+assetID] = remoteControl
}

// RemoteControlCapability implements Directory.
func (d *StaticDirectory) RemoteControlCapability(orgID, assetID string) (bool, error) {
	enabled, ok := d.capabilities[orgID+"/"+assetID]
	if !ok {
		return false, ErrNotFound
	}
	return enabled, nil
}
