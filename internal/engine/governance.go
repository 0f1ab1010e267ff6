package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// CreateProposal opens a proposal in circleID. The voting window is fixed
// at creation: expires-at = current height + the configured voting period.
// Returns the new proposal id.
func (e *Engine) CreateProposal(ctx context.Context, caller uuid.UUID, circleID uint64, kind string, target *uuid.UUID, amount uint64, description string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.circles[circleID]; !ok {
		return 0, models.E(models.CodeCircleNotFound, "circle %d does not exist", circleID)
	}
	if _, ok := e.memberships[memberKey{circleID, caller}]; !ok {
		return 0, models.E(models.CodeNotMember, "proposer is not a member of circle %d", circleID)
	}
	if target != nil {
		if _, ok := e.memberships[memberKey{circleID, *target}]; !ok {
			return 0, models.E(models.CodeNotMember, "target is not a member of circle %d", circleID)
		}
	}
	if err := validateProposalKind(kind); err != nil {
		return 0, err
	}
	if amount == 0 || amount > e.params.MaxProposalAmount {
		return 0, models.E(models.CodeInvalidParams,
			"proposal amount must be in 1..%d", e.params.MaxProposalAmount)
	}
	if err := validateDescription(description); err != nil {
		return 0, err
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("read block height: %w", err)
	}

	id := e.proposalSeq.Next()
	e.proposals[id] = &models.Proposal{
		ID:          id,
		CircleID:    circleID,
		Proposer:    caller,
		Kind:        kind,
		Target:      target,
		Amount:      amount,
		Description: description,
		CreatedAt:   height,
		ExpiresAt:   height + e.params.VotingPeriodBlocks,
	}

	e.log.Info("proposal created", "proposal_id", id, "circle_id", circleID, "kind", kind, "proposer", caller)
	e.commit(Event{Op: "create_proposal", Caller: caller, Height: height, CircleID: circleID, ProposalID: id, Amount: amount})
	return id, nil
}

// VoteOnProposal records caller's single weighted vote. Weight is the
// caller's circle stake plus circle reputation scaled by the circle's
// reputation weight, snapshotted at vote time.
func (e *Engine) VoteOnProposal(ctx context.Context, caller uuid.UUID, proposalID uint64, voteFor bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	proposal, ok := e.proposals[proposalID]
	if !ok {
		return models.E(models.CodeProposalNotFound, "proposal %d does not exist", proposalID)
	}
	membership, ok := e.memberships[memberKey{proposal.CircleID, caller}]
	if !ok {
		return models.E(models.CodeNotMember, "not a member of circle %d", proposal.CircleID)
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("read block height: %w", err)
	}
	if height >= proposal.ExpiresAt {
		return models.E(models.CodeVotingClosed, "voting closed at height %d", proposal.ExpiresAt)
	}
	key := voteKey{proposalID, caller}
	if _, ok := e.votes[key]; ok {
		return models.E(models.CodeAlreadyVoted, "already voted on proposal %d", proposalID)
	}

	weight := e.voteWeight(proposal.CircleID, membership)
	if weight == 0 {
		return models.E(models.CodeInsufficientStake, "voting weight is zero")
	}

	e.votes[key] = &models.VoteRecord{
		ProposalID: proposalID,
		Voter:      caller,
		VoteFor:    voteFor,
		Weight:     weight,
		Timestamp:  height,
	}
	if voteFor {
		proposal.VotesFor = satAdd(proposal.VotesFor, weight)
	} else {
		proposal.VotesAgainst = satAdd(proposal.VotesAgainst, weight)
	}
	proposal.TotalVotes = satAdd(proposal.TotalVotes, weight)
	membership.LastActivity = height

	e.log.Info("vote recorded", "proposal_id", proposalID, "voter", caller, "for", voteFor, "weight", weight)
	e.commit(Event{Op: "vote", Caller: caller, Height: height, CircleID: proposal.CircleID, ProposalID: proposalID, Amount: weight})
	return nil
}

func (e *Engine) voteWeight(circleID uint64, m *models.Membership) uint64 {
	multiplier := e.params.RepWeightMultiplier
	if circle, ok := e.circles[circleID]; ok && circle.ReputationWeight > 0 {
		multiplier = circle.ReputationWeight
	}
	return satAdd(m.StakeAmount, mulCapped(m.ReputationScore, multiplier))
}

// quorumOf computes staked*percent/100 without overflowing uint64.
func quorumOf(staked, percent uint64) uint64 {
	return (staked/100)*percent + (staked%100)*percent/100
}

// mulCapped multiplies and saturates instead of wrapping.
func mulCapped(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > ^uint64(0)/b {
		return ^uint64(0)
	}
	return a * b
}

// ExecuteProposal finalizes an expired proposal. It succeeds when the
// for-tally strictly exceeds the against-tally and total votes reach
// quorum, computed from the circle's current total stake. Only reward
// proposals carry an effect; the rest are marked executed and nothing
// more. A proposal that fails the tally check stays open-but-expired and
// can be retried.
func (e *Engine) ExecuteProposal(ctx context.Context, caller uuid.UUID, proposalID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	proposal, ok := e.proposals[proposalID]
	if !ok {
		return models.E(models.CodeProposalNotFound, "proposal %d does not exist", proposalID)
	}
	circle, ok := e.circles[proposal.CircleID]
	if !ok {
		return models.E(models.CodeCircleNotFound, "circle %d does not exist", proposal.CircleID)
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("read block height: %w", err)
	}
	if height < proposal.ExpiresAt {
		return models.E(models.CodeVotingClosed, "voting still open until height %d", proposal.ExpiresAt)
	}
	if proposal.Executed {
		return models.E(models.CodeInvalidParams, "proposal %d already executed", proposalID)
	}

	quorum := quorumOf(circle.TotalStaked, e.params.QuorumPercent)
	if proposal.VotesFor <= proposal.VotesAgainst {
		return models.E(models.CodeInvalidVote, "proposal did not pass: %d for, %d against",
			proposal.VotesFor, proposal.VotesAgainst)
	}
	if proposal.TotalVotes < quorum {
		return models.E(models.CodeInvalidVote, "quorum not met: %d of %d required",
			proposal.TotalVotes, quorum)
	}

	// Apply the effect before flipping Executed so a failed effect leaves
	// the proposal retriable.
	if proposal.Kind == models.ProposalKindReward {
		if proposal.Target == nil {
			return models.E(models.CodeInvalidParams, "reward proposal has no target")
		}
		if err := e.applyReward(proposal.CircleID, *proposal.Target, proposal.Amount, height); err != nil {
			return err
		}
	}
	proposal.Executed = true

	e.log.Info("proposal executed", "proposal_id", proposalID, "kind", proposal.Kind, "caller", caller)
	e.commit(Event{Op: "execute_proposal", Caller: caller, Height: height, CircleID: proposal.CircleID, ProposalID: proposalID, Amount: proposal.Amount})
	return nil
}
