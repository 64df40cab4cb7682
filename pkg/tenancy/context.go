package tenancy

import "context"

// ctxKey is an unexported type used as the context key for OrgContext.
type ctxKey struct{}

// OrgContext carries the resolved organization and caller identity
// through request context.
type OrgContext struct {
	OrgID    string
	UserID   string
	UserName string
	Role     string
}

// WithOrg returns a new context with the given OrgContext attached.
func WithOrg(ctx context.Context, oc OrgContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, oc)
}

// OrgFromContext retrieves the OrgContext from the context.
// Returns the zero value and false if no org context is set.
func OrgFromContext(ctx context.Context) (OrgContext, bool) {
	oc, ok := ctx.Value(ctxKey{}).(OrgContext)
	return oc, ok
}

// OrgIDFromContext is a convenience function that returns the org id
// from the context, or "" if no org context is set.
func OrgIDFromContext(ctx context.Context) string {
	oc, ok := OrgFromContext(ctx)
	if !ok {
		return ""
	}
	return oc.OrgID
}
