// Package grpc carries the bearer-token gate over to internal gRPC
// services: interceptors verify the same signed tokens the HTTP
// middleware accepts and expose the resolved user id on the context.
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// DefaultAuthorizationKey is the metadata key carrying the bearer token.
const DefaultAuthorizationKey = "authorization"

type contextKey string

const contextKeyUserID contextKey = "auth_user_id"

// VerifyTokenFunc validates a bearer token and returns the user id it
// names. Any error means the request is unauthenticated.
type VerifyTokenFunc func(token string) (string, error)

// Config holds the metadata key configuration and the token verifier.
type Config struct {
	// AuthorizationKey is the gRPC metadata key holding the
	// "Bearer <token>" value. Defaults to "authorization".
	AuthorizationKey string

	// VerifyToken validates tokens. Typically TokenCodec.VerifyToken.
	VerifyToken VerifyTokenFunc
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.AuthorizationKey == "" {
		c.AuthorizationKey = DefaultAuthorizationKey
	}
}

// UserIDFromContext returns the authenticated user id placed in the
// context by the interceptors, or "" when the request carried no valid
// token.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyUserID).(string); ok {
		return v
	}
	return ""
}

// IsAuthenticated reports whether the context carries an authenticated
// user.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// TokenToOutgoingContext attaches a bearer token to an outgoing gRPC
// context, for clients calling an authenticated service.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return TokenToOutgoingContextWithKey(ctx, token, DefaultAuthorizationKey)
}

// TokenToOutgoingContextWithKey attaches a bearer token under a custom
// metadata key.
func TokenToOutgoingContextWithKey(ctx context.Context, token, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, "Bearer "+token)
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
