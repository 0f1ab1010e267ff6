package models

import (
	"github.com/google/uuid"
)

// Recognized proposal kinds.
const (
	ProposalKindSlash   = "slash"
	ProposalKindReward  = "reward"
	ProposalKindKick    = "kick"
	ProposalKindUpgrade = "upgrade"
)

// ValidProposalKind reports whether kind is one of the recognized kinds.
func ValidProposalKind(kind string) bool {
	switch kind {
	case ProposalKindSlash, ProposalKindReward, ProposalKindKick, ProposalKindUpgrade:
		return true
	default:
		return false
	}
}

// Proposal is a governance proposal within one circle. Tallies only grow
// while the proposal is open; Executed transitions false to true at most
// once, on or after ExpiresAt.
type Proposal struct {
	ID           uint64     `json:"id"`
	CircleID     uint64     `json:"circle_id"`
	Proposer     uuid.UUID  `json:"proposer"`
	Kind         string     `json:"kind"`
	Target       *uuid.UUID `json:"target,omitempty"`
	Amount       uint64     `json:"amount"`
	Description  string     `json:"description"`
	VotesFor     uint64     `json:"votes_for"`
	VotesAgainst uint64     `json:"votes_against"`
	TotalVotes   uint64     `json:"total_votes"`
	CreatedAt    uint64     `json:"created_at"`
	ExpiresAt    uint64     `json:"expires_at"`
	Executed     bool       `json:"executed"`
}

// VoteRecord is the single vote a member cast on one proposal.
// Weight is the voter's stake plus weighted circle reputation at vote time.
type VoteRecord struct {
	ProposalID uint64    `json:"proposal_id"`
	Voter      uuid.UUID `json:"voter"`
	VoteFor    bool      `json:"vote_for"`
	Weight     uint64    `json:"weight"`
	Timestamp  uint64    `json:"timestamp"`
}
