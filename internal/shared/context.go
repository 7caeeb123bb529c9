package shared

import "context"

// Identity carries the authenticated organisation and user for a request.
// It is established by the gateway-trust middleware; the core never resolves
// credentials itself.
type Identity struct {
	OrgID  int64
	UserID int64
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
