package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const bearerPrefix = "Bearer "

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key and token verifier.
	*Config

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but UserIDFromContext returns empty.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Only used when RequireAuth is true.
	// Keys are full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// NewInterceptorConfig returns a config that requires auth for all
// methods except the listed ones.
func NewInterceptorConfig(verify VerifyTokenFunc, publicMethods ...string) *InterceptorConfig {
	config := &InterceptorConfig{
		Config:        &Config{VerifyToken: verify},
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated
// requests through while still resolving valid tokens.
func OptionalAuthConfig(verify VerifyTokenFunc) *InterceptorConfig {
	return &InterceptorConfig{
		Config:      &Config{VerifyToken: verify},
		RequireAuth: false,
	}
}

// UnaryAuthInterceptor returns a unary interceptor that verifies the
// bearer token in the request metadata and, on success, makes the user
// id available via UserIDFromContext.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config = ensureConfig(config)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, userID := authenticate(ctx, config)

		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && userID == "" {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns a stream interceptor with the same
// semantics as UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config = ensureConfig(config)

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, userID := authenticate(ss.Context(), config)

		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && userID == "" {
			return status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
	}
}

// wrappedStream overrides the stream context so handlers see the
// authenticated user.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

func ensureConfig(config *InterceptorConfig) *InterceptorConfig {
	if config == nil {
		config = &InterceptorConfig{RequireAuth: true}
	}
	if config.Config == nil {
		config.Config = &Config{}
	}
	if config.PublicMethods == nil {
		config.PublicMethods = make(map[string]bool)
	}
	config.Config.EnsureDefaults()
	return config
}

// authenticate verifies the first well-formed bearer token in the
// request metadata. A missing, malformed or unverifiable token yields
// an empty user id; it never falls through to a default identity.
func authenticate(ctx context.Context, config *InterceptorConfig) (context.Context, string) {
	if config.VerifyToken == nil {
		return ctx, ""
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, ""
	}

	for _, value := range md.Get(config.AuthorizationKey) {
		if !strings.HasPrefix(value, bearerPrefix) {
			continue
		}
		token := strings.TrimSpace(value[len(bearerPrefix):])
		if token == "" {
			continue
		}
		userID, err := config.VerifyToken(token)
		if err == nil && userID != "" {
			return withUserID(ctx, userID), userID
		}
	}
	return ctx, ""
}
