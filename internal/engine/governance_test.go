package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// ---------------------------------------------------------------------------
// CreateProposal
// ---------------------------------------------------------------------------

func TestCreateProposal_Success(t *testing.T) {
	e, tokens, clock := newTestEngine(t)
	ctx := context.Background()
	circleID, creator, member := seedTwoMembers(t, e, tokens)

	clock.height = 50
	id, err := e.CreateProposal(ctx, creator, circleID, models.ProposalKindReward, &member, 500, "reward for onboarding work")
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}

	p := e.GetProposalInfo(id)
	if p == nil {
		t.Fatal("proposal not found after create")
	}
	if p.CreatedAt != 50 || p.ExpiresAt != 150 {
		t.Errorf("window: created=%d expires=%d, want 50/150", p.CreatedAt, p.ExpiresAt)
	}
	if p.VotesFor != 0 || p.VotesAgainst != 0 || p.TotalVotes != 0 {
		t.Errorf("tallies must start at zero: %+v", p)
	}
	if p.Executed {
		t.Error("new proposal marked executed")
	}
	if p.Target == nil || *p.Target != member {
		t.Error("proposal target mismatch")
	}
}

func TestCreateProposal_Validation(t *testing.T) {
	e, tokens, _ := newTestEngine(t)
	ctx := context.Background()
	circleID, creator, member := seedTwoMembers(t, e, tokens)
	stranger := uuid.New()

	type tc struct {
		name   string
		caller uuid.UUID
		circle uint64
		kind   string
		target *uuid.UUID
		amount uint64
		desc   string
		want   models.Code
	}
	cases := []tc{
		{"unknown circle", creator, 99, "reward", nil, 10, "d", models.CodeCircleNotFound},
		{"proposer not member", stranger, circleID, "reward", nil, 10, "d", models.CodeNotMember},
		{"target not member", creator, circleID, "kick", &stranger, 10, "d", models.CodeNotMember},
		{"unknown kind", creator, circleID, "merge", nil, 10, "d", models.CodeInvalidParams},
		{"zero amount", creator, circleID, "reward", &member, 0, "d", models.CodeInvalidParams},
		{"amount over cap", creator, circleID, "reward", &member, 10_000_001, "d", models.CodeInvalidParams},
		{"empty description", creator, circleID, "reward", &member, 10, "", models.CodeInvalidParams},
		{"oversized description", creator, circleID, "reward", &member, 10, strings.Repeat("x", 257), models.CodeInvalidParams},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := e.CreateProposal(ctx, c.caller, c.circle, c.kind, c.target, c.amount, c.desc)
			wantCode(t, err, c.want)
		})
	}
	if got := e.GetNextProposalID(); got != 1 {
		t.Errorf("rejected proposals burned ids: next is %d", got)
	}
}

// ---------------------------------------------------------------------------
// VoteOnProposal
// ---------------------------------------------------------------------------

// seedProposal opens an upgrade proposal in a two-member circle and
// returns everything a voting test needs.
func seedProposal(t *testing.T, e *Engine, tokens *fakeTokens) (proposalID, circleID uint64, creator, member uuid.UUID) {
	t.Helper()
	circleID, creator, member = seedTwoMembers(t, e, tokens)
	id, err := e.CreateProposal(context.Background(), creator, circleID, models.ProposalKindUpgrade, nil, 100, "bump protocol rev")
	if err != nil {
		t.Fatalf("seed proposal: %v", err)
	}
	return id, circleID, creator, member
}

func TestVoteOnProposal_WeightAndTallies(t *testing.T) {
	e, tokens, _ := newTestEngine(t)
	ctx := context.Background()
	proposalID, circleID, creator, member := seedProposal(t, e, tokens)

	// Weight = stake + circle reputation. Give the member 100 reputation
	// so the two voters carry different weights.
	if err := e.RewardMember(ctx, creator, circleID, member, 100); err != nil {
		t.Fatalf("seed reward: %v", err)
	}

	if err := e.VoteOnProposal(ctx, creator, proposalID, true); err != nil {
		t.Fatalf("creator vote: %v", err)
	}
	if err := e.VoteOnProposal(ctx, member, proposalID, false); err != nil {
		t.Fatalf("member vote: %v", err)
	}

	p := e.GetProposalInfo(proposalID)
	if p.VotesFor != 1_000_000 {
		t.Errorf("votes_for: got %d, want 1000000", p.VotesFor)
	}
	if p.VotesAgainst != 1_000_100 {
		t.Errorf("votes_against: got %d, want 1000100", p.VotesAgainst)
	}
	if p.TotalVotes != 2_000_100 {
		t.Errorf("total_votes: got %d, want 2000100", p.TotalVotes)
	}

	v := e.GetVoteInfo(proposalID, member)
	if v == nil {
		t.Fatal("vote record missing")
	}
	if v.VoteFor || v.Weight != 1_000_100 {
		t.Errorf("vote record: %+v", v)
	}

	// Exactly one record per (proposal, voter): repeats are rejected and
	// tallies stay put.
	wantCode(t, e.VoteOnProposal(ctx, creator, proposalID, true), models.CodeAlreadyVoted)
	wantCode(t, e.VoteOnProposal(ctx, member, proposalID, true), models.CodeAlreadyVoted)
	if got := e.GetProposalInfo(proposalID).TotalVotes; got != 2_000_100 {
		t.Errorf("tally moved on rejected revote: %d", got)
	}
}

func TestVoteOnProposal_Errors(t *testing.T) {
	e, tokens, clock := newTestEngine(t)
	ctx := context.Background()
	proposalID, _, creator, _ := seedProposal(t, e, tokens)
	stranger := uuid.New()

	wantCode(t, e.VoteOnProposal(ctx, creator, 99, true), models.CodeProposalNotFound)
	wantCode(t, e.VoteOnProposal(ctx, stranger, proposalID, true), models.CodeNotMember)

	clock.height = 101 // past expiry (created at 1, period 100)
	wantCode(t, e.VoteOnProposal(ctx, creator, proposalID, true), models.CodeVotingClosed)
}

// ---------------------------------------------------------------------------
// ExecuteProposal
// ---------------------------------------------------------------------------

func TestExecuteProposal_QuorumShortfall(t *testing.T) {
	e, tokens, clock := newTestEngine(t)
	ctx := context.Background()
	proposalID, _, _, member := seedProposal(t, e, tokens)

	// Total staked 2,000,000 at 60% quorum requires 1,200,000 of voting
	// weight; the single 1,000,000 vote falls short.
	if err := e.VoteOnProposal(ctx, member, proposalID, true); err != nil {
		t.Fatalf("vote: %v", err)
	}
	clock.height = 200
	wantCode(t, e.ExecuteProposal(ctx, member, proposalID), models.CodeInvalidVote)

	if e.GetProposalInfo(proposalID).Executed {
		t.Error("failed execution marked proposal executed")
	}
}

func TestExecuteProposal_Lifecycle(t *testing.T) {
	e, tokens, clock := newTestEngine(t)
	ctx := context.Background()
	proposalID, _, creator, member := seedProposal(t, e, tokens)

	// Too early.
	wantCode(t, e.ExecuteProposal(ctx, creator, proposalID), models.CodeVotingClosed)

	if err := e.VoteOnProposal(ctx, creator, proposalID, true); err != nil {
		t.Fatalf("creator vote: %v", err)
	}
	if err := e.VoteOnProposal(ctx, member, proposalID, true); err != nil {
		t.Fatalf("member vote: %v", err)
	}

	clock.height = 200
	if err := e.ExecuteProposal(ctx, creator, proposalID); err != nil {
		t.Fatalf("ExecuteProposal: %v", err)
	}
	if !e.GetProposalInfo(proposalID).Executed {
		t.Fatal("proposal not marked executed")
	}

	// Idempotence: the second attempt is rejected and changes nothing.
	wantCode(t, e.ExecuteProposal(ctx, creator, proposalID), models.CodeInvalidParams)

	wantCode(t, e.ExecuteProposal(ctx, creator, 99), models.CodeProposalNotFound)
}

func TestExecuteProposal_LosingVote(t *testing.T) {
	e, tokens, clock := newTestEngine(t)
	ctx := context.Background()
	proposalID, _, creator, member := seedProposal(t, e, tokens)

	// Equal weights voting opposite ways: a tie never passes.
	if err := e.VoteOnProposal(ctx, creator, proposalID, true); err != nil {
		t.Fatalf("creator vote: %v", err)
	}
	if err := e.VoteOnProposal(ctx, member, proposalID, false); err != nil {
		t.Fatalf("member vote: %v", err)
	}

	clock.height = 200
	wantCode(t, e.ExecuteProposal(ctx, creator, proposalID), models.CodeInvalidVote)

	// Stays open-but-expired: a later attempt fails the same way rather
	// than flipping to a terminal rejected state.
	clock.height = 500
	wantCode(t, e.ExecuteProposal(ctx, creator, proposalID), models.CodeInvalidVote)
}

func TestExecuteProposal_RewardEffect(t *testing.T) {
	e, tokens, clock := newTestEngine(t)
	ctx := context.Background()
	circleID, creator, member := seedTwoMembers(t, e, tokens)

	proposalID, err := e.CreateProposal(ctx, creator, circleID, models.ProposalKindReward, &member, 500, "reward for moderation")
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	if err := e.VoteOnProposal(ctx, creator, proposalID, true); err != nil {
		t.Fatalf("creator vote: %v", err)
	}
	if err := e.VoteOnProposal(ctx, member, proposalID, true); err != nil {
		t.Fatalf("member vote: %v", err)
	}

	globalBefore := e.GetUserReputation(member).TotalReputation
	clock.height = 200
	if err := e.ExecuteProposal(ctx, member, proposalID); err != nil {
		t.Fatalf("ExecuteProposal: %v", err)
	}

	if got := e.GetMemberInfo(circleID, member).ReputationScore; got != 500 {
		t.Errorf("circle reputation after reward execution: got %d, want 500", got)
	}
	if got := e.GetUserReputation(member).TotalReputation; got != globalBefore+500 {
		t.Errorf("global reputation: got %d, want %d", got, globalBefore+500)
	}
}

func TestExecuteProposal_NonRewardHasNoEffect(t *testing.T) {
	e, tokens, clock := newTestEngine(t)
	ctx := context.Background()
	circleID, creator, member := seedTwoMembers(t, e, tokens)

	proposalID, err := e.CreateProposal(ctx, creator, circleID, models.ProposalKindKick, &member, 100, "inactive member")
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	if err := e.VoteOnProposal(ctx, creator, proposalID, true); err != nil {
		t.Fatalf("creator vote: %v", err)
	}
	if err := e.VoteOnProposal(ctx, member, proposalID, true); err != nil {
		t.Fatalf("member vote: %v", err)
	}

	clock.height = 200
	if err := e.ExecuteProposal(ctx, creator, proposalID); err != nil {
		t.Fatalf("ExecuteProposal: %v", err)
	}

	// Kick (like slash and upgrade) is marked executed with no effect.
	if !e.IsMember(circleID, member) {
		t.Error("kick proposal mutated membership")
	}
	checkInvariants(t, e)
}

func TestQuorumOf(t *testing.T) {
	cases := []struct {
		staked, percent, want uint64
	}{
		{1_000_000, 60, 600_000},
		{0, 60, 0},
		{150, 60, 90},
		{99, 60, 59},
		{^uint64(0), 100, ^uint64(0)},
	}
	for _, c := range cases {
		if got := quorumOf(c.staked, c.percent); got != c.want {
			t.Errorf("quorumOf(%d, %d): got %d, want %d", c.staked, c.percent, got, c.want)
		}
	}
}
