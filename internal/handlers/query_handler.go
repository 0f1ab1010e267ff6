package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// QueryEngine is the read-only view the query endpoints need.
type QueryEngine interface {
	GetCircleInfo(circleID uint64) *models.TrustCircle
	GetMemberInfo(circleID uint64, member uuid.UUID) *models.Membership
	GetUserReputation(user uuid.UUID) models.UserReputation
	GetProposalInfo(proposalID uint64) *models.Proposal
	GetVoteInfo(proposalID uint64, voter uuid.UUID) *models.VoteRecord
	GetEscrowBalance(user uuid.UUID, circleID uint64) uint64
	IsMember(circleID uint64, member uuid.UUID) bool
	GetNextCircleID() uint64
	GetNextProposalID() uint64
}

// QueryHandler serves the read-only /api/v1 endpoints. Queries never
// mutate state and are safe to expose without an API key.
type QueryHandler struct {
	Engine QueryEngine
}

// --- GET /api/v1/circles/{id} ---

func (h *QueryHandler) GetCircle(w http.ResponseWriter, r *http.Request) {
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c := h.Engine.GetCircleInfo(circleID)
	if c == nil {
		http.Error(w, `{"error":"circle not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- GET /api/v1/circles/{id}/members/{member} ---

func (h *QueryHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	member, ok := pathUUID(w, r, "member")
	if !ok {
		return
	}
	m := h.Engine.GetMemberInfo(circleID, member)
	if m == nil {
		http.Error(w, `{"error":"membership not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// --- GET /api/v1/circles/{id}/members/{member}/escrow ---

func (h *QueryHandler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	member, ok := pathUUID(w, r, "member")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{
		"escrow_balance": h.Engine.GetEscrowBalance(member, circleID),
	})
}

// --- GET /api/v1/circles/{id}/members/{member}/status ---

func (h *QueryHandler) GetMembershipStatus(w http.ResponseWriter, r *http.Request) {
	circleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	member, ok := pathUUID(w, r, "member")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"is_member": h.Engine.IsMember(circleID, member),
	})
}

// --- GET /api/v1/users/{user}/reputation ---

func (h *QueryHandler) GetReputation(w http.ResponseWriter, r *http.Request) {
	user, ok := pathUUID(w, r, "user")
	if !ok {
		return
	}
	// Unknown users report a zero-valued profile rather than 404.
	writeJSON(w, http.StatusOK, h.Engine.GetUserReputation(user))
}

// --- GET /api/v1/proposals/{id} ---

func (h *QueryHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := h.Engine.GetProposalInfo(proposalID)
	if p == nil {
		http.Error(w, `{"error":"proposal not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- GET /api/v1/proposals/{id}/votes/{voter} ---

func (h *QueryHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	voter, ok := pathUUID(w, r, "voter")
	if !ok {
		return
	}
	v := h.Engine.GetVoteInfo(proposalID, voter)
	if v == nil {
		http.Error(w, `{"error":"vote not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// --- GET /api/v1/stats ---

func (h *QueryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{
		"next_circle_id":   h.Engine.GetNextCircleID(),
		"next_proposal_id": h.Engine.GetNextProposalID(),
	})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		http.Error(w, `{"error":"invalid uuid"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
