// Package account serves authenticated self-service endpoints: profile
// and API key management. Callers authenticate with a login JWT, not an
// API key, so a lost key can always be replaced from a fresh login.
package account

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/auth"
	"github.com/trustcircles/backend/internal/models"
	"github.com/trustcircles/backend/internal/repository"
)

type Handler struct {
	authSvc  auth.Service
	accountR *repository.AccountRepo
	apiKeyR  *repository.APIKeyRepo
	log      *slog.Logger
}

func NewHandler(authSvc auth.Service, accountR *repository.AccountRepo, apiKeyR *repository.APIKeyRepo, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{authSvc: authSvc, accountR: accountR, apiKeyR: apiKeyR, log: log}
}

func (h *Handler) accountIDFromRequest(r *http.Request) (uuid.UUID, error) {
	authz := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return uuid.Nil, fmt.Errorf("missing or bad authorization")
	}
	token := strings.TrimSpace(authz[len(prefix):])
	if token == "" {
		return uuid.Nil, fmt.Errorf("empty token")
	}
	return h.authSvc.ValidateToken(r.Context(), token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/account/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	acc, err := h.accountR.GetByID(r.Context(), accountID)
	if err != nil {
		h.log.Error("get account failed", "error", err)
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                acc.ID,
		"email":             acc.Email,
		"name":              acc.Name,
		"balance_units":     acc.BalanceUnits,
		"max_stake_per_day": acc.MaxStakePerDay,
		"created_at":        acc.CreatedAt,
	})
}

// GET /api/v1/api-keys
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	keys, err := h.apiKeyR.ListByAccountID(r.Context(), accountID)
	if err != nil {
		h.log.Error("list api keys failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// POST /api/v1/api-keys
// The raw key is returned exactly once; only its hash is stored.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		http.Error(w, "key generation failed", http.StatusInternalServerError)
		return
	}
	rawKey := "tc_" + hex.EncodeToString(rawBytes)
	hash := sha256.Sum256([]byte(rawKey))

	k := &models.APIKey{
		ID:        uuid.New(),
		AccountID: accountID,
		KeyHash:   hex.EncodeToString(hash[:]),
		KeyPrefix: rawKey[:10],
		IsActive:  true,
	}
	if err := h.apiKeyR.Create(r.Context(), k); err != nil {
		h.log.Error("create api key failed", "error", err)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         k.ID,
		"key_prefix": k.KeyPrefix,
		"is_active":  k.IsActive,
		"raw_key":    rawKey,
	})
}

// DELETE /api/v1/api-keys/{id}
// Keys are deactivated, never deleted, so the audit trail keeps the row.
func (h *Handler) DeactivateAPIKey(w http.ResponseWriter, r *http.Request) {
	_, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	keyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	if err := h.apiKeyR.Deactivate(r.Context(), keyID); err != nil {
		h.log.Error("deactivate api key failed", "error", err)
		http.Error(w, "deactivate failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
