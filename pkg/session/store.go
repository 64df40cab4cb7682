package session

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/opsdeck/remote-broker/pkg/telemetry"
)

// ErrNotFound is returned when the session does not exist for the org.
var ErrNotFound = errors.New("session not found")

// ErrConflict is returned when the asset already has an open session.
var ErrConflict = errors.New("asset already has an open session")

// ErrInvalidState is returned when a transition is attempted from a
// status that does not permit it.
var ErrInvalidState = errors.New("invalid session state for transition")

// Store provides database operations for session rows. Sessions are
// never deleted; terminal sessions persist for audit and history.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the sessions table.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&SessionRecord{})
}

// Insert creates the session row. The exclusivity key's unique index is
// the only guard against a second open session on the same asset: a
// duplicate-key violation maps to ErrConflict. There is deliberately no
// pre-check read.
func (s *Store) Insert(record *SessionRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("asset %s: %w", record.AssetID, ErrConflict)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by id within an org.
func (s *Store) Get(orgID, sessionID string) (*SessionRecord, error) {
	var record SessionRecord
	err := s.db.Where("org_id = ? AND id = ?", orgID, sessionID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &record, nil
}

// List returns paginated sessions for an org, newest first. pageToken
// is an RFC3339Nano timestamp; rows with started_at < pageToken are
// returned.
func (s *Store) List(orgID string, filter ListFilter, pageSize int, pageToken string) ([]SessionRecord, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	buildQuery := func(base *gorm.DB) *gorm.DB {
		q := base.Model(&SessionRecord{}).Where("org_id = ?", orgID)
		if filter.AssetID != "" {
			q = q.Where("asset_id = ?", filter.AssetID)
		}
		if filter.OperatorUserID != "" {
			q = q.Where("operator_user_id = ?", filter.OperatorUserID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
		return q
	}

	var totalSize int64
	if err := buildQuery(s.db).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count sessions: %w", err)
	}

	query := buildQuery(s.db).Order("started_at DESC").Limit(pageSize + 1)
	if pageToken != "" {
		ts, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("started_at < ?", ts)
	}

	var records []SessionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list sessions: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].StartedAt.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// Terminate moves an open session to a terminal status, stamping
// ended_at and the computed duration and releasing the exclusivity key.
// The transition is a single conditional UPDATE keyed on the current
// status, so a second invocation observes zero affected rows and
// returns ErrInvalidState without touching the stored duration.
//
// When from statuses are given, only those source statuses qualify;
// otherwise any open session (pending or active) may be terminated.
func (s *Store) Terminate(orgID, sessionID string, to Status, from ...Status) (*SessionRecord, error) {
	if !to.Terminal() {
		return nil, fmt.Errorf("status %q is not terminal: %w", to, ErrInvalidState)
	}

	fromStatuses := []string{string(StatusPending), string(StatusActive)}
	if len(from) > 0 {
		fromStatuses = fromStatuses[:0]
		for _, f := range from {
			fromStatuses = append(fromStatuses, string(f))
		}
	}

	var record SessionRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ? AND id = ?", orgID, sessionID).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load session for terminate: %w", err)
		}

		now := time.Now()
		duration := int64(now.Sub(record.StartedAt) / time.Second)

		result := tx.Model(&SessionRecord{}).
			Where("org_id = ? AND id = ? AND status IN ?", orgID, sessionID, fromStatuses).
			Updates(map[string]any{
				"status":           string(to),
				"ended_at":         now,
				"duration_seconds": duration,
				"exclusivity_key":  nil,
			})
		if result.Error != nil {
			return fmt.Errorf("terminate session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("session %s is %s: %w", sessionID, record.Status, ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload to return the stamped values.
	return s.Get(orgID, sessionID)
}

// GrantConsent transitions a pending session to active and stamps the
// consent fields. A session in any other state returns ErrInvalidState
// and is left untouched.
func (s *Store) GrantConsent(orgID, sessionID, grantedBy string) (*SessionRecord, error) {
	now := time.Now()
	granted := true
	result := s.db.Model(&SessionRecord{}).
		Where("org_id = ? AND id = ? AND status = ?", orgID, sessionID, string(StatusPending)).
		Updates(map[string]any{
			"status":          string(StatusActive),
			"consent_granted": granted,
			"consent_by":      grantedBy,
			"consent_at":      now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("grant consent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing session from a non-pending one.
		record, err := s.Get(orgID, sessionID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("session %s is %s, consent requires pending: %w", sessionID, record.Status, ErrInvalidState)
	}
	return s.Get(orgID, sessionID)
}

// MarkConsentDenied stamps the consent-refused fields on a session that
// was just terminated by a deny. Separate from Terminate so the
// terminal transition stays a single conditional update.
func (s *Store) MarkConsentDenied(orgID, sessionID, deniedBy string) error {
	now := time.Now()
	denied := false
	result := s.db.Model(&SessionRecord{}).
		Where("org_id = ? AND id = ?", orgID, sessionID).
		Updates(map[string]any{
			"consent_granted": denied,
			"consent_by":      deniedBy,
			"consent_at":      now,
		})
	if result.Error != nil {
		return fmt.Errorf("mark consent denied: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateQualityMetrics stores the latest telemetry sample on the
// session row, replacing any previous sample (last-write-wins).
func (s *Store) UpdateQualityMetrics(orgID, sessionID string, sample telemetry.Sample) error {
	result := s.db.Model(&SessionRecord{}).
		Where("org_id = ? AND id = ?", orgID, sessionID).
		Update("quality_metrics", &sample)
	if result.Error != nil {
		return fmt.Errorf("update quality metrics: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
