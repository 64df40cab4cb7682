// Package authz evaluates whether an operator may open a remote-control
// session: role against org policy, and the asset's capability flag.
package authz

import (
	"errors"
	"fmt"

	"github.com/opsdeck/remote-broker/pkg/assets"
	"github.com/opsdeck/remote-broker/pkg/policy"
)

// ErrPermissionDenied is returned when the role or capability check fails.
var ErrPermissionDenied = errors.New("permission denied")

// ErrNotFound is returned when the asset does not exist for the org.
var ErrNotFound = errors.New("not found")

// Gate performs authorization checks. Pure reads aside from lazy policy
// creation; no audit side effects.
type Gate struct {
	policies  *policy.Store
	directory assets.Directory
}

// NewGate creates a Gate.
func NewGate(policies *policy.Store, directory assets.Directory) *Gate {
	return &Gate{policies: policies, directory: directory}
}

// CheckPermission reports whether the given role may request remote
// control under the org's policy. The policy is created with defaults on
// first access.
func (g *Gate) CheckPermission(orgID, role string) (bool, error) {
	record, err := g.policies.GetOrCreate(orgID)
	if err != nil {
		return false, fmt.Errorf("load policy: %w", err)
	}
	if !record.Enabled {
		return false, nil
	}
	return record.AllowedRoles.Contains(role), nil
}

// CheckAssetCapability verifies the asset exists for the org and has
// remote control enabled. Returns ErrNotFound for a missing asset and
// ErrPermissionDenied when the capability flag is off.
func (g *Gate) CheckAssetCapability(orgID, assetID string) error {
	enabled, err := g.directory.RemoteControlCapability(orgID, assetID)
	if err != nil {
		if errors.Is(err, assets.ErrNotFound) {
			return fmt.Errorf("asset %s: %w", assetID, ErrNotFound)
		}
		return fmt.Errorf("check asset capability: %w", err)
	}
	if !enabled {
		return fmt.Errorf("asset %s has remote control disabled: %w", assetID, ErrPermissionDenied)
	}
	return nil
}
