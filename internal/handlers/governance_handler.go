package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// GovernanceEngine is the subset of engine operations the proposal endpoints need.
type GovernanceEngine interface {
	CreateProposal(ctx context.Context, caller uuid.UUID, circleID uint64, kind string, target *uuid.UUID, amount uint64, description string) (uint64, error)
	VoteOnProposal(ctx context.Context, caller uuid.UUID, proposalID uint64, voteFor bool) error
	ExecuteProposal(ctx context.Context, caller uuid.UUID, proposalID uint64) error
}

// GovernanceHandler serves the /v1/proposals endpoints.
type GovernanceHandler struct {
	Engine GovernanceEngine
	Logger *slog.Logger
}

// --- POST /v1/circles/{id}/proposals ---

type createProposalRequest struct {
	Kind        string     `json:"kind"`
	Target      *uuid.UUID `json:"target,omitempty"`
	Amount      uint64     `json:"amount"`
	Description string     `json:"description"`
}

type createProposalResponse struct {
	ProposalID uint64 `json:"proposal_id"`
}

func (h *GovernanceHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromCtx(w, r)
	if !ok {
		return
	}
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	id, err := h.Engine.CreateProposal(r.Context(), caller, circleID, req.Kind, req.Target, req.Amount, req.Description)
	if err != nil {
		writeEngineError(w, h.Logger, "create proposal", err)
		return
	}
	writeJSON(w, http.StatusCreated, createProposalResponse{ProposalID: id})
}

// --- POST /v1/proposals/{id}/vote ---

type voteRequest struct {
	VoteFor bool `json:"vote_for"`
}

func (h *GovernanceHandler) Vote(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromCtx(w, r)
	if !ok {
		return
	}
	proposalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	if err := h.Engine.VoteOnProposal(r.Context(), caller, proposalID, req.VoteFor); err != nil {
		writeEngineError(w, h.Logger, "vote on proposal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"voted": true})
}

// --- POST /v1/proposals/{id}/execute ---

func (h *GovernanceHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromCtx(w, r)
	if !ok {
		return
	}
	proposalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Engine.ExecuteProposal(r.Context(), caller, proposalID); err != nil {
		writeEngineError(w, h.Logger, "execute proposal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"executed": true})
}
