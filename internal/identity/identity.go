// Package identity carries caller identity through a request context.
package identity

import (
	"context"

	"connectrpc.com/authn"
)

// UserInfo holds the verified caller's identity and group memberships
// as established by the resource-server middleware.
type UserInfo struct {
	Subject string
	Email   string
	Groups  []string
}

// GetUserInfo retrieves the verified UserInfo stored by the
// authentication middleware. Anonymous requests have none.
func GetUserInfo(ctx context.Context) (UserInfo, bool) {
	info, ok := authn.GetInfo(ctx).(UserInfo)
	return info, ok
}

type contextKey struct{}

var externalIDKey = contextKey{}

// WithExternalID stores the canonical caller identity resolved by the
// reconciliation filter.
func WithExternalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, externalIDKey, id)
}

// ExternalID retrieves the canonical caller identity.
func ExternalID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(externalIDKey).(string)
	return id, ok && id != ""
}
