package session

import (
	"fmt"

	"github.com/opsdeck/remote-broker/pkg/audit"
)

// ConsentCoordinator drives the pending->active and pending->failed
// transitions on top of the Registry.
type ConsentCoordinator struct {
	registry *Registry
}

// NewConsentCoordinator creates a ConsentCoordinator.
func NewConsentCoordinator(registry *Registry) *ConsentCoordinator {
	return &ConsentCoordinator{registry: registry}
}

// Grant approves a pending session: it becomes active with the consent
// fields stamped, and a consent_granted event is appended. This path
// does not emit session_end. A session not in pending fails with
// ErrInvalidState and is left unchanged.
func (c *ConsentCoordinator) Grant(orgID, sessionID, grantedBy string) (*Session, error) {
	record, err := c.registry.store.GrantConsent(orgID, sessionID, grantedBy)
	if err != nil {
		return nil, err
	}

	entry := &audit.Entry{
		OrgID:          orgID,
		SessionID:      sessionID,
		AssetID:        record.AssetID,
		OperatorUserID: record.OperatorUserID,
		Action:         audit.ActionConsentGranted,
		Details:        fmt.Sprintf("granted by %s", grantedBy),
	}
	if err := c.registry.ledger.Append(entry); err != nil {
		return nil, fmt.Errorf("audit consent grant: %w", err)
	}

	api := toAPI(record)
	return &api, nil
}

// Deny refuses a pending session: the session is terminated as failed
// through the generic terminal path (which emits session_end), then a
// consent_denied event is appended on top. The terminal update is
// conditioned on the pending status, so a deny racing a grant cannot
// tear down a just-activated session.
func (c *ConsentCoordinator) Deny(orgID, sessionID, deniedBy string) (*Session, error) {
	result, err := c.registry.terminate(orgID, sessionID, StatusFailed, StatusPending)
	if err != nil {
		return nil, err
	}

	if err := c.registry.store.MarkConsentDenied(orgID, sessionID, deniedBy); err != nil {
		return nil, err
	}

	entry := &audit.Entry{
		OrgID:          orgID,
		SessionID:      sessionID,
		AssetID:        result.AssetID,
		OperatorUserID: result.OperatorUserID,
		Action:         audit.ActionConsentDenied,
		Details:        fmt.Sprintf("denied by %s", deniedBy),
	}
	if err := c.registry.ledger.Append(entry); err != nil {
		return nil, fmt.Errorf("audit consent deny: %w", err)
	}

	// Re-read so the response carries the consent stamps.
	return c.registry.Get(orgID, sessionID)
}
