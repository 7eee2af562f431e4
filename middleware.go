package taskvault

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const contextKeyUser contextKey = "auth_user"

// Fixed responses of the authentication gate. Rejections carry one of
// three safe messages and nothing else about their cause.
const (
	MsgNoToken      = "Access denied. No token provided."
	MsgInvalidToken = "Invalid token."
	MsgStaleToken   = "Invalid token. User not found."
)

const bearerPrefix = "Bearer "

// Middleware is the single authorization gate for protected routes. It
// extracts the bearer token, verifies it, resolves the identity it
// names and attaches that identity to the request context -- or rejects
// before any resource access happens.
type Middleware struct {
	Codec *TokenCodec
	Users UserStore

	// AuthHeader defaults to "Authorization".
	AuthHeader string
}

// NewMiddleware creates the authentication gate.
func NewMiddleware(codec *TokenCodec, users UserStore) *Middleware {
	return &Middleware{Codec: codec, Users: users}
}

// UserFromContext returns the authenticated user attached by
// RequireUser. The user's secret field is always empty.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKeyUser).(*User)
	return u, ok && u != nil
}

// RequireUser rejects the request unless it carries a valid bearer
// token naming a user that still exists. The downstream handler always
// sees the freshly fetched record, never a claim trusted from the
// token: a token that outlives its user is rejected even though its
// signature still verifies.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := m.bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, MsgNoToken)
			return
		}

		userID, err := m.Codec.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, MsgInvalidToken)
			return
		}

		user, err := m.Users.GetUserByID(userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, MsgStaleToken)
				return
			}
			slog.Error("user lookup failed during authentication", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		// Strip the secret before the user leaves the auth core. The
		// copy is owned by this request alone.
		scrubbed := *user
		scrubbed.PasswordHash = ""

		ctx := context.WithValue(r.Context(), contextKeyUser, &scrubbed)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header. The
// scheme is case-sensitive: anything but an exact "Bearer " prefix is
// treated as an absent token.
func (m *Middleware) bearerToken(r *http.Request) (string, bool) {
	header := m.AuthHeader
	if header == "" {
		header = "Authorization"
	}
	value := r.Header.Get(header)
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearerPrefix):])
	return token, token != ""
}
