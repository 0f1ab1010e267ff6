package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// --- GovernanceEngine mock ---

type mockGovEngine struct {
	err error

	proposalCircle uint64
	proposalKind   string
	votedProposal  uint64
	votedFor       bool
	executed       uint64
}

func (m *mockGovEngine) CreateProposal(_ context.Context, _ uuid.UUID, circleID uint64, kind string, _ *uuid.UUID, _ uint64, _ string) (uint64, error) {
	m.proposalCircle = circleID
	m.proposalKind = kind
	if m.err != nil {
		return 0, m.err
	}
	return 42, nil
}

func (m *mockGovEngine) VoteOnProposal(_ context.Context, _ uuid.UUID, proposalID uint64, voteFor bool) error {
	m.votedProposal = proposalID
	m.votedFor = voteFor
	return m.err
}

func (m *mockGovEngine) ExecuteProposal(_ context.Context, _ uuid.UUID, proposalID uint64) error {
	m.executed = proposalID
	return m.err
}

// =====================================================================
// POST /v1/circles/{id}/proposals
// =====================================================================

func TestCreateProposal_Created(t *testing.T) {
	eng := &mockGovEngine{}
	h := &GovernanceHandler{Engine: eng}

	body := `{"kind":"reward","amount":500,"description":"bonus for release work"}`
	req := authedRequest(http.MethodPost, "/v1/circles/5/proposals", body)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.CreateProposal(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createProposalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ProposalID != 42 {
		t.Errorf("expected proposal_id 42, got %d", resp.ProposalID)
	}
	if eng.proposalCircle != 5 || eng.proposalKind != "reward" {
		t.Errorf("engine saw circle=%d kind=%q", eng.proposalCircle, eng.proposalKind)
	}
}

func TestCreateProposal_NotMemberMapped(t *testing.T) {
	eng := &mockGovEngine{err: models.E(models.CodeNotMember, "proposer is not a member")}
	h := &GovernanceHandler{Engine: eng}

	body := `{"kind":"kick","amount":1,"description":"inactive"}`
	req := authedRequest(http.MethodPost, "/v1/circles/5/proposals", body)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()

	h.CreateProposal(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

// =====================================================================
// POST /v1/proposals/{id}/vote
// =====================================================================

func TestVote_PassesDirection(t *testing.T) {
	eng := &mockGovEngine{}
	h := &GovernanceHandler{Engine: eng}

	req := authedRequest(http.MethodPost, "/v1/proposals/42/vote", `{"vote_for":true}`)
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()

	h.Vote(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if eng.votedProposal != 42 || !eng.votedFor {
		t.Errorf("engine saw proposal=%d for=%v", eng.votedProposal, eng.votedFor)
	}
}

func TestVote_AlreadyVotedMapped(t *testing.T) {
	eng := &mockGovEngine{err: models.E(models.CodeAlreadyVoted, "already voted")}
	h := &GovernanceHandler{Engine: eng}

	req := authedRequest(http.MethodPost, "/v1/proposals/42/vote", `{"vote_for":false}`)
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()

	h.Vote(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

// =====================================================================
// POST /v1/proposals/{id}/execute
// =====================================================================

func TestExecute_OK(t *testing.T) {
	eng := &mockGovEngine{}
	h := &GovernanceHandler{Engine: eng}

	req := authedRequest(http.MethodPost, "/v1/proposals/42/execute", "")
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()

	h.Execute(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if eng.executed != 42 {
		t.Errorf("engine saw proposal=%d", eng.executed)
	}
}

func TestExecute_QuorumShortfallMapped(t *testing.T) {
	eng := &mockGovEngine{err: models.E(models.CodeInvalidVote, "quorum not reached")}
	h := &GovernanceHandler{Engine: eng}

	req := authedRequest(http.MethodPost, "/v1/proposals/42/execute", "")
	req.SetPathValue("id", "42")
	rec := httptest.NewRecorder()

	h.Execute(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}
