package tenancy

import (
	"fmt"
	"net/http"
	"regexp"
)

// maxOrgIDLen is the maximum length for an org id.
const maxOrgIDLen = 63

// orgIDRe validates org id format: lowercase alphanumeric and hyphens,
// must start and end with an alphanumeric character (DNS label convention).
var orgIDRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// OrgQueryParam is the query parameter name used for org resolution.
const OrgQueryParam = "org"

// OrgHeader is the HTTP header used for org resolution.
const OrgHeader = "X-Org-ID"

// Identity headers populated by the upstream authentication layer.
// The broker trusts these; it does not derive identity itself.
const (
	UserIDHeader   = "X-User-ID"
	UserNameHeader = "X-User-Name"
	RoleHeader     = "X-User-Role"
)

// OrgResolver resolves the org context from an HTTP request.
type OrgResolver interface {
	Resolve(r *http.Request) (OrgContext, error)
}

// SingleOrgResolver always returns the "default" org, with identity
// taken from the trusted headers when present.
type SingleOrgResolver struct{}

// Resolve always returns an OrgContext with OrgID "default".
func (s SingleOrgResolver) Resolve(r *http.Request) (OrgContext, error) {
	oc := identityFromHeaders(r)
	oc.OrgID = "default"
	return oc, nil
}

// HeaderOrgResolver reads the org id from the request query parameter
// or header. In multi-tenant mode the org id is always required.
type HeaderOrgResolver struct{}

// Resolve extracts the org id from the request. It checks the query
// parameter first, then falls back to the X-Org-ID header. Returns an
// error if the org id is missing or invalid.
func (h HeaderOrgResolver) Resolve(r *http.Request) (OrgContext, error) {
	org := r.URL.Query().Get(OrgQueryParam)
	if org == "" {
		org = r.Header.Get(OrgHeader)
	}

	if org == "" {
		return OrgContext{}, fmt.Errorf("org id is required in multi-tenant mode (use ?org= query param or X-Org-ID header)")
	}

	if err := validateOrgID(org); err != nil {
		return OrgContext{}, err
	}

	oc := identityFromHeaders(r)
	oc.OrgID = org
	return oc, nil
}

// identityFromHeaders reads the caller identity from the trusted headers.
func identityFromHeaders(r *http.Request) OrgContext {
	return OrgContext{
		UserID:   r.Header.Get(UserIDHeader),
		UserName: r.Header.Get(UserNameHeader),
		Role:     r.Header.Get(RoleHeader),
	}
}

// validateOrgID checks that an org id conforms to DNS label rules:
// lowercase alphanumeric and hyphens, 1-63 characters, starts and ends
// with an alphanumeric character.
func validateOrgID(org string) error {
	if len(org) > maxOrgIDLen {
		return fmt.Errorf("org id %q exceeds maximum length of %d characters", org, maxOrgIDLen)
	}
	if !orgIDRe.MatchString(org) {
		return fmt.Errorf("org id %q is invalid: must consist of lowercase alphanumeric characters or hyphens, and must start and end with an alphanumeric character", org)
	}
	return nil
}
