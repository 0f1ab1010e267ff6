package engine

import (
	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// Read-only lookups. Each returns a copy so callers can never mutate
// engine state through a query result.

// GetCircleInfo returns the circle or nil if unknown.
func (e *Engine) GetCircleInfo(circleID uint64) *models.TrustCircle {
	e.mu.Lock()
	defer e.mu.Unlock()
	circle, ok := e.circles[circleID]
	if !ok {
		return nil
	}
	cp := *circle
	return &cp
}

// GetMemberInfo returns the membership of member in circleID, or nil.
func (e *Engine) GetMemberInfo(circleID uint64, member uuid.UUID) *models.Membership {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.memberships[memberKey{circleID, member}]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// GetUserReputation returns the global aggregate for user. Users never
// seen by the engine report zeroes.
func (e *Engine) GetUserReputation(user uuid.UUID) models.UserReputation {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rep, ok := e.reputations[user]; ok {
		return *rep
	}
	return models.UserReputation{User: user}
}

// GetProposalInfo returns the proposal or nil if unknown.
func (e *Engine) GetProposalInfo(proposalID uint64) *models.Proposal {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.proposals[proposalID]
	if !ok {
		return nil
	}
	cp := *p
	if p.Target != nil {
		t := *p.Target
		cp.Target = &t
	}
	return &cp
}

// GetVoteInfo returns voter's vote on proposalID, or nil if none exists.
func (e *Engine) GetVoteInfo(proposalID uint64, voter uuid.UUID) *models.VoteRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.votes[voteKey{proposalID, voter}]
	if !ok {
		return nil
	}
	cp := *v
	return &cp
}

// GetEscrowBalance returns the escrowed amount for (user, circleID);
// zero when no record exists.
func (e *Engine) GetEscrowBalance(user uuid.UUID, circleID uint64) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rec, ok := e.escrows[memberKey{circleID, user}]; ok {
		return rec.Amount
	}
	return 0
}

// IsMember reports whether member has an active membership in circleID.
func (e *Engine) IsMember(circleID uint64, member uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.memberships[memberKey{circleID, member}]
	return ok && m.IsActive
}

// GetNextCircleID returns the id the next created circle will receive.
func (e *Engine) GetNextCircleID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.circleSeq.Peek()
}

// GetNextProposalID returns the id the next proposal will receive.
func (e *Engine) GetNextProposalID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proposalSeq.Peek()
}
