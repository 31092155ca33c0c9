package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// caller identity placed in a request context.
type contextKey string

const userIDKey contextKey = "userID"

// TokenCookieName is the HttpOnly cookie set by the browser login flows.
// API clients send the same token in the Authorization header instead.
const TokenCookieName = "token"

// RequireAuth enforces authentication on protected routes. It resolves the
// credential token (Authorization: Bearer header, falling back to the
// HttpOnly cookie), validates it, and stores the userID in the request
// context. Missing or invalid tokens end the request with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolveCaller(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the caller identity if a valid token is present but
// never blocks the request. Used on public routes where an authenticated
// caller sees the same data; handlers treat a missing identity as an
// anonymous read.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := resolveCaller(r, tokens); err == nil && userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated caller's ID.
// Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// resolveCaller extracts and validates the credential token. The
// Authorization header wins over the cookie so API clients can override a
// stale browser session.
func resolveCaller(r *http.Request, tokens *TokenService) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return "", errors.New("auth: malformed Authorization header")
		}
		return tokens.Validate(tokenStr)
	}

	cookie, err := r.Cookie(TokenCookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
