package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/models"
	"github.com/tuitionhub/server/internal/services"
)

type ctxKey struct{}

func WithAccount(ctx context.Context, acct *models.Account) context.Context {
	return context.WithValue(ctx, ctxKey{}, acct)
}

func AccountFrom(ctx context.Context) (*models.Account, bool) {
	acct, ok := ctx.Value(ctxKey{}).(*models.Account)
	return acct, ok && acct != nil
}

// ActorFrom returns the caller; handlers behind Require always have one.
func ActorFrom(ctx context.Context) services.Actor {
	if acct, ok := AccountFrom(ctx); ok {
		return services.ActorOf(*acct)
	}
	return services.Actor{}
}

func deny(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// Require rejects requests without a valid session. The account is reloaded
// on every request so deleted or deactivated accounts lose access at once.
func (s *Sessions) Require(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := s.Parse(token)
			if err != nil {
				s.ClearCookie(w)
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			acct, err := services.AccountByID(db, claims.AccountID)
			switch {
			case errors.Is(err, services.ErrNotFound):
				s.ClearCookie(w)
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			case err != nil:
				deny(w, http.StatusInternalServerError, "internal")
				return
			}
			if !acct.Active || acct.Role != claims.Role {
				s.ClearCookie(w)
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}

// RequireRole must run after Require.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acct, ok := AccountFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, role := range roles {
				if acct.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, "forbidden")
		})
	}
}
