package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store provides append-only operations for the session audit ledger.
// No update or delete operation is exposed.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the audit table.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&EntryRecord{})
}

// Append inserts a new immutable ledger row for the validated entry.
func (s *Store) Append(e *Entry) error {
	if !e.Action.Valid() {
		return fmt.Errorf("unknown audit action: %q", e.Action)
	}
	record := EntryRecord{
		ID:             uuid.New().String(),
		OrgID:          e.OrgID,
		SessionID:      e.SessionID,
		AssetID:        e.AssetID,
		OperatorUserID: e.OperatorUserID,
		Action:         string(e.Action),
		Details:        e.Details,
		IPAddress:      e.IPAddress,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// BySession returns all ledger rows for a session in ascending timestamp
// order, with insertion order as the tiebreak.
func (s *Store) BySession(orgID, sessionID string) ([]EntryRecord, error) {
	var records []EntryRecord
	err := s.db.Where("org_id = ? AND session_id = ?", orgID, sessionID).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries by session: %w", err)
	}
	return records, nil
}

// List returns paginated ledger rows for an org, newest first.
// pageToken is an RFC3339Nano timestamp; rows with created_at < pageToken
// are returned. Optionally filters by action.
func (s *Store) List(orgID string, pageSize int, pageToken string, filterAction string) ([]EntryRecord, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	baseQuery := s.db.Model(&EntryRecord{}).Where("org_id = ?", orgID)
	if filterAction != "" {
		baseQuery = baseQuery.Where("action = ?", filterAction)
	}

	var totalSize int64
	if err := baseQuery.Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := s.db.Where("org_id = ?", orgID).Order("created_at DESC").Limit(pageSize + 1)
	if filterAction != "" {
		query = query.Where("action = ?", filterAction)
	}
	if pageToken != "" {
		ts, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("created_at < ?", ts)
	}

	var records []EntryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list audit entries: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].CreatedAt.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}
