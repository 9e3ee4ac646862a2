// Package auth issues and verifies the service's own JWT session
// tokens, hashes passwords and tracks signed-out tokens in an
// expiring denylist.
package auth

import "context"

// Role is the caller's authorization level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleVendor Role = "vendor"
	RoleUser   Role = "user"
)

// ParseRole validates a stored role string, defaulting to user.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleVendor, RoleUser:
		return Role(s)
	default:
		return RoleUser
	}
}

// Identity is the resolved caller attached to authenticated requests.
type Identity struct {
	ID    string
	Email string
	Role  Role
}

type identityContextKey struct{}

// WithIdentity stores the resolved identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// GetIdentity retrieves the identity from the context, or nil when the
// request is unauthenticated.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityContextKey{}).(*Identity); ok {
		return id
	}
	return nil
}
