package assets

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDirectory(t *testing.T) (*DBDirectory, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	dir := NewDBDirectory(db)
	require.NoError(t, dir.AutoMigrate())
	return dir, db
}

func TestDBDirectory_RemoteControlCapability(t *testing.T) {
	dir, db := newTestDirectory(t)

	require.NoError(t, db.Create(&AssetRecord{
		ID:                   "a-1",
		OrgID:                "acme",
		Name:                 "workstation-7",
		RemoteControlEnabled: true,
	}).Error)
	require.NoError(t, db.Create(&AssetRecord{
		ID:                   "a-2",
		OrgID:                "acme",
		Name:                 "kiosk-3",
		RemoteControlEnabled: false,
	}).Error)

	enabled, err := dir.RemoteControlCapability("acme", "a-1")
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = dir.RemoteControlCapability("acme", "a-2")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestDBDirectory_NotFound(t *testing.T) {
	dir, _ := newTestDirectory(t)

	_, err := dir.RemoteControlCapability("acme", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDBDirectory_OrgScoped(t *testing.T) {
	dir, db := newTestDirectory(t)

	require.NoError(t, db.Create(&AssetRecord{
		ID:                   "a-1",
		OrgID:                "acme",
		RemoteControlEnabled: true,
	}).Error)

	// The same asset id does not exist under another org.
	_, err := dir.RemoteControlCapability("globex", "a-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaticDirectory(t *testing.T) {
	dir := NewStaticDirectory()
	dir.Add("acme", "a-1", true)
	dir.Add("acme", "a-2", false)

	enabled, err := dir.RemoteControlCapability("acme", "a-1")
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = dir.RemoteControlCapability("acme", "a-2")
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = dir.RemoteControlCapability("acme", "a-3")
	assert.ErrorIs(t, err, ErrNotFound)
}
