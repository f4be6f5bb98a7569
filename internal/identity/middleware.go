// Package identity resolves the authenticated account for a request. The
// actual authentication provider is an external collaborator; this package is
// the seam where its verified identity enters the service, via the
// X-Account-ID header.
package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

type contextKey struct{}

// FromContext returns the account attached by Middleware, or nil on
// unauthenticated requests.
func FromContext(ctx context.Context) *domain.Account {
	account, _ := ctx.Value(contextKey{}).(*domain.Account)
	return account
}

type Middleware struct {
	repo   *AccountRepository
	logger *slog.Logger
}

func NewMiddleware(repo *AccountRepository, logger *slog.Logger) *Middleware {
	return &Middleware{repo: repo, logger: logger}
}

// Resolve loads the account named by X-Account-ID into the request context.
// Requests without the header pass through unauthenticated; handlers that
// need an identity enforce it via Require.
func (m *Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := r.Header.Get("X-Account-ID")
		if accountID == "" {
			next.ServeHTTP(w, r)
			return
		}

		account, err := m.repo.GetByID(r.Context(), accountID)
		if err != nil {
			m.logger.Error("failed to resolve account", "error", err, "account_id", accountID)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if account == nil {
			writeError(w, http.StatusUnauthorized, "unknown account")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, account)))
	})
}

// Require rejects requests whose resolved account is missing or does not hold
// one of the allowed roles.
func Require(roles ...domain.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			account := FromContext(r.Context())
			if account == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if account.Role == role {
					next(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden")
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
