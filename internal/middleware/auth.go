package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"blogssom/internal/apperr"
	"blogssom/internal/auth"
	"blogssom/internal/models"
	"blogssom/internal/repository"
)

type ctxKey string

const ctxUser ctxKey = "user"

// Authenticator is the per-request authorization pipeline: extract a
// bearer token, verify it, resolve the account, reject tokens that
// predate a password change, then attach the account to the context.
type Authenticator struct {
	Tokens     *auth.TokenService
	Passwords  *auth.PasswordManager
	Users      repository.UserRepository
	CookieName string
	Production bool
}

// Protect gates a route on a valid, fresh session.
func (a *Authenticator) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r, a.CookieName)
		if tokenString == "" {
			apperr.Write(w, apperr.New(apperr.KindNoToken, "You are not logged in! Log in to get access."), a.Production)
			return
		}

		claims, err := a.Tokens.Verify(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				apperr.Write(w, apperr.New(apperr.KindBadToken, "Your session has expired. Please log in again."), a.Production)
				return
			}
			apperr.Write(w, apperr.New(apperr.KindBadToken, "Invalid token. Please log in again."), a.Production)
			return
		}

		u, err := a.Users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				apperr.Write(w, apperr.New(apperr.KindAccountGone, "The user belonging to the token no longer exists."), a.Production)
				return
			}
			apperr.Write(w, apperr.Internal(err), a.Production)
			return
		}

		if a.Passwords.IsTokenStale(u, claims.IssuedAt) {
			apperr.Write(w, apperr.New(apperr.KindPasswordChanged, "User recently changed password! Please log in again."), a.Production)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
	})
}

// RequireRole composes after Protect and rejects accounts outside the
// allowed role set.
func (a *Authenticator) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil || !allowed[u.Role] {
				apperr.Write(w, apperr.New(apperr.KindForbidden, "You do not have permission to perform this action"), a.Production)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated account, or nil outside a
// protected route.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxUser).(*models.User)
	return u
}

// ContextWithUser binds an account to the context the way Protect does.
func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// extractToken prefers a Bearer authorization header; any other header
// form is ignored and the session cookie is consulted instead.
func extractToken(r *http.Request, cookieName string) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
