package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/middleware"
	"github.com/trustcircles/backend/internal/models"
)

// CircleEngine is the subset of engine operations the circle endpoints need.
type CircleEngine interface {
	CreateCircle(ctx context.Context, caller uuid.UUID, name string, isPublic bool, stakeThreshold uint64) (uint64, error)
	JoinCircle(ctx context.Context, caller uuid.UUID, circleID, stakeAmount uint64) error
	LeaveCircle(ctx context.Context, caller uuid.UUID, circleID uint64) error
	EndorseMember(ctx context.Context, caller uuid.UUID, circleID uint64, target uuid.UUID, amount uint64) error
	RewardMember(ctx context.Context, caller uuid.UUID, circleID uint64, target uuid.UUID, amount uint64) error
}

// CircleHandler serves the /v1/circles endpoints.
type CircleHandler struct {
	Engine CircleEngine
	Logger *slog.Logger
}

// --- POST /v1/circles ---

type createCircleRequest struct {
	Name           string `json:"name"`
	IsPublic       bool   `json:"is_public"`
	StakeThreshold uint64 `json:"stake_threshold"`
}

type createCircleResponse struct {
	CircleID uint64 `json:"circle_id"`
}

func (h *CircleHandler) CreateCircle(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromCtx(w, r)
	if !ok {
		return
	}
	var req createCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	id, err := h.Engine.CreateCircle(r.Context(), caller, req.Name, req.IsPublic, req.StakeThreshold)
	if err != nil {
		writeEngineError(w, h.Logger, "create circle", err)
		return
	}
	writeJSON(w, http.StatusCreated, createCircleResponse{CircleID: id})
}

// --- POST /v1/circles/{id}/join ---

type joinCircleRequest struct {
	StakeAmount uint64 `json:"stake_amount"`
}

func (h *CircleHandler) JoinCircle(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromCtx(w, r)
	if !ok {
		return
	}
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req joinCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	if err := h.Engine.JoinCircle(r.Context(), caller, circleID, req.StakeAmount); err != nil {
		writeEngineError(w, h.Logger, "join circle", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"joined": true})
}

// --- POST /v1/circles/{id}/leave ---

func (h *CircleHandler) LeaveCircle(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromCtx(w, r)
	if !ok {
		return
	}
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Engine.LeaveCircle(r.Context(), caller, circleID); err != nil {
		writeEngineError(w, h.Logger, "leave circle", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": true})
}

// --- POST /v1/circles/{id}/endorse and /v1/circles/{id}/reward ---

type reputationRequest struct {
	Target uuid.UUID `json:"target"`
	Amount uint64    `json:"amount"`
}

func (h *CircleHandler) EndorseMember(w http.ResponseWriter, r *http.Request) {
	h.reputationOp(w, r, "endorse member", h.Engine.EndorseMember)
}

func (h *CircleHandler) RewardMember(w http.ResponseWriter, r *http.Request) {
	h.reputationOp(w, r, "reward member", h.Engine.RewardMember)
}

func (h *CircleHandler) reputationOp(w http.ResponseWriter, r *http.Request, op string,
	apply func(ctx context.Context, caller uuid.UUID, circleID uint64, target uuid.UUID, amount uint64) error,
) {
	caller, ok := callerFromCtx(w, r)
	if !ok {
		return
	}
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reputationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	if err := apply(r.Context(), caller, circleID, req.Target, req.Amount); err != nil {
		writeEngineError(w, h.Logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": true})
}

// --- helpers shared across handler files ---

// callerFromCtx resolves the authenticated principal set by APIKeyAuth.
func callerFromCtx(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return acc.ID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeEngineError maps the engine's numeric code onto an HTTP status.
// The body always carries the stable code for programmatic callers.
func writeEngineError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	var coded *models.Error
	if !errors.As(err, &coded) {
		if log == nil {
			log = slog.Default()
		}
		log.Error(op, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	status := http.StatusConflict
	switch coded.Code {
	case models.CodeInvalidParams:
		status = http.StatusBadRequest
	case models.CodeUnauthorized, models.CodeNotMember:
		status = http.StatusForbidden
	case models.CodeInsufficientStake, models.CodeInsufficientBalance:
		status = http.StatusPaymentRequired
	case models.CodeCircleNotFound, models.CodeProposalNotFound:
		status = http.StatusNotFound
	case models.CodeVotingClosed, models.CodeAlreadyVoted, models.CodeAlreadyMember, models.CodeInvalidVote:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]any{"error": coded.Msg, "code": int(coded.Code)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
