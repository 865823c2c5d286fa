package auth

import "context"

type contextKey struct{}

// AuthContext carries the identity resolved from a bearer token.
// VendorID is zero unless the user has the vendor role.
type AuthContext struct {
	UserID   int64
	Role     string
	VendorID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func Role(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Role
}

func VendorID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.VendorID
}

func IsAdmin(ctx context.Context) bool {
	return Role(ctx) == "admin"
}
