package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/UzukeeIA/ROBUXFREE/internal/app/session"
	"github.com/UzukeeIA/ROBUXFREE/internal/common"
	"github.com/UzukeeIA/ROBUXFREE/internal/common/security"
)

type contextKey string

const (
	UserIDCtxKey    contextKey = "userID"
	SessionIDCtxKey contextKey = "sessionID"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// TokenFromSessionCookie is a jwtauth token finder for the session cookie.
func TokenFromSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Verifier checks the session cookie signature and expiry and places the
// result in the request context for SessionLoader.
func Verifier(issuer *security.TokenIssuer) func(http.Handler) http.Handler {
	return jwtauth.Verify(issuer.JWTAuth(), TokenFromSessionCookie)
}

// SessionLoader resolves a verified token to its user. Missing, invalid,
// expired or revoked tokens leave the request anonymous.
func SessionLoader(store session.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				next.ServeHTTP(w, r)
				return
			}
			sid, err := security.GetSessionIDFromClaims(claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok, err := store.Get(r.Context(), sid)
			if err != nil {
				logger.ErrorContext(r.Context(), "session lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), SessionIDCtxKey, sid)
			if ok {
				ctx = context.WithValue(ctx, UserIDCtxKey, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			common.RespondWithDomainError(w, common.AuthRequired())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok && userID != 0
}

// GetSessionIDFromContext returns the session id named by a validly signed
// cookie, even when the session itself has expired server-side.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDCtxKey).(string)
	return sid, ok && sid != ""
}
