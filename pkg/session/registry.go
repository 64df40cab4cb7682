package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/opsdeck/remote-broker/pkg/audit"
	"github.com/opsdeck/remote-broker/pkg/authz"
	"github.com/opsdeck/remote-broker/pkg/policy"
	"github.com/opsdeck/remote-broker/pkg/token"
)

// Registry orchestrates the session lifecycle: authorization, policy
// snapshotting, the exclusivity-guarded insert, audit emission, and
// token issuance.
type Registry struct {
	store    *Store
	gate     *authz.Gate
	policies *policy.Store
	ledger   *audit.Store
	tokens   *token.Issuer
}

// NewRegistry creates a Registry.
func NewRegistry(store *Store, gate *authz.Gate, policies *policy.Store, ledger *audit.Store, tokens *token.Issuer) *Registry {
	return &Registry{
		store:    store,
		gate:     gate,
		policies: policies,
		ledger:   ledger,
		tokens:   tokens,
	}
}

// Create opens a session for the operator on the asset. The initial
// status is active unless the org policy requires consent, in which
// case the session starts pending and the asset is reserved until the
// consent decision. Returns the created session and a signed token the
// operator's client presents to the transport layer.
//
// Exclusivity is enforced by the store's unique index, not by a
// read-then-write check, so concurrent creates on the same asset cannot
// both succeed.
func (r *Registry) Create(orgID, assetID string, operator Operator, netCtx NetworkContext) (*Session, string, error) {
	allowed, err := r.gate.CheckPermission(orgID, operator.Role)
	if err != nil {
		return nil, "", fmt.Errorf("check permission: %w", err)
	}
	if !allowed {
		return nil, "", fmt.Errorf("role %q may not request remote control: %w", operator.Role, authz.ErrPermissionDenied)
	}

	if err := r.gate.CheckAssetCapability(orgID, assetID); err != nil {
		return nil, "", err
	}

	policyRecord, err := r.policies.GetOrCreate(orgID)
	if err != nil {
		return nil, "", fmt.Errorf("snapshot policy: %w", err)
	}
	snapshot := SnapshotOf(policyRecord)

	status := StatusActive
	if snapshot.RequireConsent {
		status = StatusPending
	}

	key := exclusivityKey(orgID, assetID)
	record := &SessionRecord{
		ID:              uuid.New().String(),
		OrgID:           orgID,
		AssetID:         assetID,
		OperatorUserID:  operator.UserID,
		OperatorName:    operator.Name,
		Status:          string(status),
		ExclusivityKey:  &key,
		ConsentRequired: snapshot.RequireConsent,
		IPAddress:       netCtx.IPAddress,
		UserAgent:       netCtx.UserAgent,
		PolicySnapshot:  snapshot,
	}
	if err := r.store.Insert(record); err != nil {
		return nil, "", err
	}

	entry := &audit.Entry{
		OrgID:          orgID,
		SessionID:      record.ID,
		AssetID:        assetID,
		OperatorUserID: operator.UserID,
		Action:         audit.ActionSessionStart,
		IPAddress:      netCtx.IPAddress,
	}
	if err := r.ledger.Append(entry); err != nil {
		return nil, "", fmt.Errorf("audit session start: %w", err)
	}

	signed, err := r.tokens.Issue(token.Payload{
		SessionID:   record.ID,
		AssetID:     assetID,
		OrgID:       orgID,
		UserID:      operator.UserID,
		Permissions: permissionsFor(snapshot),
	})
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	api := toAPI(record)
	return &api, signed, nil
}

// permissionsFor derives the token scope from the policy snapshot.
// Every session may view and send input; clipboard and file transfer
// are granted only when the snapshot allows them.
func permissionsFor(snapshot PolicySnapshot) []string {
	perms := []string{PermissionView, PermissionInput}
	if snapshot.AllowClipboard {
		perms = append(perms, PermissionClipboard)
	}
	if snapshot.AllowFileTransfer {
		perms = append(perms, PermissionFileTransfer)
	}
	return perms
}

// UpdateStatus moves a session to a terminal status (ended or failed),
// stamping ended_at and the duration and emitting the session_end audit
// event. Which transitions are legal from which caller is the caller's
// concern; this layer only refuses non-terminal targets and transitions
// out of an already-terminal state.
func (r *Registry) UpdateStatus(orgID, sessionID string, to Status) (*Session, error) {
	return r.terminate(orgID, sessionID, to)
}

// terminate runs the terminal transition and emits session_end. The
// optional from statuses narrow which source states qualify.
func (r *Registry) terminate(orgID, sessionID string, to Status, from ...Status) (*Session, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", to, ErrInvalidState)
	}

	record, err := r.store.Terminate(orgID, sessionID, to, from...)
	if err != nil {
		return nil, err
	}

	entry := &audit.Entry{
		OrgID:          orgID,
		SessionID:      sessionID,
		AssetID:        record.AssetID,
		OperatorUserID: record.OperatorUserID,
		Action:         audit.ActionSessionEnd,
		Details:        fmt.Sprintf("final status %s", to),
	}
	if err := r.ledger.Append(entry); err != nil {
		return nil, fmt.Errorf("audit session end: %w", err)
	}

	api := toAPI(record)
	return &api, nil
}

// Get returns a single session.
func (r *Registry) Get(orgID, sessionID string) (*Session, error) {
	record, err := r.store.Get(orgID, sessionID)
	if err != nil {
		return nil, err
	}
	api := toAPI(record)
	return &api, nil
}

// List returns sessions for an org, newest first.
func (r *Registry) List(orgID string, filter ListFilter, pageSize int, pageToken string) (*SessionList, error) {
	records, nextToken, totalSize, err := r.store.List(orgID, filter, pageSize, pageToken)
	if err != nil {
		return nil, err
	}
	out := &SessionList{
		Sessions:      make([]Session, 0, len(records)),
		NextPageToken: nextToken,
		TotalSize:     totalSize,
	}
	for i := range records {
		out.Sessions = append(out.Sessions, toAPI(&records[i]))
	}
	return out, nil
}
