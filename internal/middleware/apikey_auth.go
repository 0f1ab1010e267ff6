package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/trustcircles/backend/internal/models"
	"github.com/trustcircles/backend/internal/repository"
)

type contextKey string

const ctxAccountKey contextKey = "account"

// APIKeyRepo is the interface used by API key auth middleware.
type APIKeyRepo interface {
	FindByKeyHash(ctx context.Context, keyHash string) (*repository.APIKeyWithAccount, error)
}

// APIKeyAuth authenticates requests by hashing the Bearer token (SHA-256)
// and looking it up in api_keys. On success the joined account — the
// caller principal every engine operation sees — is set into request
// context.
func APIKeyAuth(apiKeyRepo APIKeyRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}

			hash := hashKey(raw)
			result, err := apiKeyRepo.FindByKeyHash(r.Context(), hash)
			if err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxAccountKey, &result.Account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromCtx returns the authenticated account or nil.
func AccountFromCtx(ctx context.Context) *models.Account {
	acc, _ := ctx.Value(ctxAccountKey).(*models.Account)
	return acc
}

// WithAccount returns a context carrying the given account.
func WithAccount(ctx context.Context, acc *models.Account) context.Context {
	return context.WithValue(ctx, ctxAccountKey, acc)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
