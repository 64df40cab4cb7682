// Package tenancy provides per-organization context resolution and
// middleware for the broker server. It supports single-org deployments
// (backward compatible) and org-scoped multi-tenant mode.
package tenancy

// TenancyMode controls how the organization context is resolved.
type TenancyMode string

const (
	// ModeSingle uses the "default" org for all requests (backward compat).
	ModeSingle TenancyMode = "single"
	// ModeOrg requires an org id per request (multi-tenant).
	ModeOrg TenancyMode = "org"
)
