// Package engine implements the trust-circle state-transition core:
// circle lifecycle, stake escrow accounting, reputation transfer and
// aggregation, and the proposal-voting-execution state machine.
//
// Every public operation validates fully before mutating any state, so a
// rejected operation leaves the engine untouched. A single mutex
// serializes all operations, reproducing the serialized execution model
// the original substrate guaranteed.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// TokenLedger is the native transfer primitive. Transfers are atomic:
// either both balances move or neither does.
type TokenLedger interface {
	Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error
}

// Clock supplies the monotonically increasing block height.
type Clock interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// Params are the economic and governance constants the engine honors.
type Params struct {
	MinCircleStake      uint64
	MinMemberStake      uint64
	MaxRepTransfer      uint64
	MaxProposalAmount   uint64
	JoiningBonus        uint64
	VotingPeriodBlocks  uint64
	QuorumPercent       uint64
	RepWeightMultiplier uint64
}

// Event describes a committed mutation, for audit/metrics hooks.
type Event struct {
	Op         string
	Caller     uuid.UUID
	Height     uint64
	CircleID   uint64
	ProposalID uint64
	Amount     uint64
}

type memberKey struct {
	CircleID uint64
	Member   uuid.UUID
}

type voteKey struct {
	ProposalID uint64
	Voter      uuid.UUID
}

// sequence issues strictly increasing ids. Allocation happens under the
// engine lock, so Next is a plain read-and-increment.
type sequence struct {
	next uint64
}

func (s *sequence) Next() uint64 {
	id := s.next
	s.next++
	return id
}

func (s *sequence) Peek() uint64 { return s.next }

// Engine owns all trust-circle state. The escrow pool account custodies
// staked funds; the engine is the only writer of its own maps.
type Engine struct {
	mu sync.Mutex

	params Params
	tokens TokenLedger
	clock  Clock
	log    *slog.Logger

	// OnCommit, if set, is invoked after every successful mutation with
	// the engine lock still held; implementations must not block.
	OnCommit func(Event)

	pool uuid.UUID

	circles     map[uint64]*models.TrustCircle
	memberships map[memberKey]*models.Membership
	reputations map[uuid.UUID]*models.UserReputation
	escrows     map[memberKey]*models.EscrowRecord
	proposals   map[uint64]*models.Proposal
	votes       map[voteKey]*models.VoteRecord

	circleSeq   sequence
	proposalSeq sequence
}

// New returns an empty engine using the given collaborators. Circle and
// proposal ids start at 1.
func New(params Params, tokens TokenLedger, clock Clock, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		params:      params,
		tokens:      tokens,
		clock:       clock,
		log:         log,
		pool:        models.EscrowPoolAccountID,
		circles:     make(map[uint64]*models.TrustCircle),
		memberships: make(map[memberKey]*models.Membership),
		reputations: make(map[uuid.UUID]*models.UserReputation),
		escrows:     make(map[memberKey]*models.EscrowRecord),
		proposals:   make(map[uint64]*models.Proposal),
		votes:       make(map[voteKey]*models.VoteRecord),
		circleSeq:   sequence{next: 1},
		proposalSeq: sequence{next: 1},
	}
}

func (e *Engine) commit(ev Event) {
	if e.OnCommit != nil {
		e.OnCommit(ev)
	}
}

// reputationFor returns the aggregate record for user, creating a zeroed
// one on first touch.
func (e *Engine) reputationFor(user uuid.UUID) *models.UserReputation {
	rep, ok := e.reputations[user]
	if !ok {
		rep = &models.UserReputation{User: user}
		e.reputations[user] = rep
	}
	return rep
}

// adjustGlobal applies a signed reputation change, clamping at zero.
func (e *Engine) adjustGlobal(user uuid.UUID, delta int64, height uint64) {
	rep := e.reputationFor(user)
	if delta >= 0 {
		rep.TotalReputation = satAdd(rep.TotalReputation, uint64(delta))
	} else {
		dec := uint64(-delta)
		if dec > rep.TotalReputation {
			rep.TotalReputation = 0
		} else {
			rep.TotalReputation -= dec
		}
	}
	rep.LastUpdated = height
}

// satAdd is a saturating add; counters never wrap.
func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}
