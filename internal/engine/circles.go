package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// ErrInsufficientFunds must be returned by TokenLedger implementations
// when the debited account cannot cover the transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// CreateCircle allocates a new circle and immediately performs the
// creator's founding join, staking exactly the circle threshold.
// Returns the new circle id.
func (e *Engine) CreateCircle(ctx context.Context, caller uuid.UUID, name string, isPublic bool, stakeThreshold uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := validateCircleName(name); err != nil {
		return 0, err
	}
	if stakeThreshold < e.params.MinCircleStake {
		return 0, models.E(models.CodeInvalidParams,
			"stake threshold %d below minimum %d", stakeThreshold, e.params.MinCircleStake)
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("read block height: %w", err)
	}

	// The founding stake moves before any state is written, so a failed
	// transfer leaves no circle behind (and burns no id).
	if err := e.tokens.Transfer(ctx, caller, e.pool, stakeThreshold); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return 0, models.E(models.CodeInsufficientBalance,
				"creator cannot cover founding stake %d", stakeThreshold)
		}
		return 0, fmt.Errorf("founding stake transfer: %w", err)
	}

	id := e.circleSeq.Next()
	e.circles[id] = &models.TrustCircle{
		ID:               id,
		Name:             name,
		Creator:          caller,
		IsPublic:         isPublic,
		StakeThreshold:   stakeThreshold,
		CreatedAt:        height,
		ReputationWeight: e.params.RepWeightMultiplier,
	}
	e.admitMember(caller, id, stakeThreshold, height)

	e.log.Info("circle created", "circle_id", id, "creator", caller, "threshold", stakeThreshold)
	e.commit(Event{Op: "create_circle", Caller: caller, Height: height, CircleID: id, Amount: stakeThreshold})
	return id, nil
}

// JoinCircle stakes stakeAmount into circleID on behalf of caller. The
// deposit transfer is the last step before bookkeeping, so a failed
// transfer leaves no state behind.
func (e *Engine) JoinCircle(ctx context.Context, caller uuid.UUID, circleID, stakeAmount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	circle, ok := e.circles[circleID]
	if !ok {
		return models.E(models.CodeCircleNotFound, "circle %d does not exist", circleID)
	}
	if _, ok := e.memberships[memberKey{circleID, caller}]; ok {
		return models.E(models.CodeAlreadyMember, "already a member of circle %d", circleID)
	}
	if stakeAmount < e.params.MinMemberStake || stakeAmount < circle.StakeThreshold {
		return models.E(models.CodeInsufficientStake,
			"stake %d below circle threshold %d", stakeAmount, circle.StakeThreshold)
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("read block height: %w", err)
	}

	if err := e.tokens.Transfer(ctx, caller, e.pool, stakeAmount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return models.E(models.CodeInsufficientBalance, "cannot cover stake %d", stakeAmount)
		}
		return fmt.Errorf("stake transfer: %w", err)
	}

	e.admitMember(caller, circleID, stakeAmount, height)

	e.log.Info("member joined", "circle_id", circleID, "member", caller, "stake", stakeAmount)
	e.commit(Event{Op: "join_circle", Caller: caller, Height: height, CircleID: circleID, Amount: stakeAmount})
	return nil
}

// admitMember creates the Membership/EscrowRecord pair, bumps circle
// statistics, and grants the joining bonus. Caller holds the lock and has
// already moved the stake into the pool.
func (e *Engine) admitMember(member uuid.UUID, circleID, stake, height uint64) {
	key := memberKey{circleID, member}
	e.memberships[key] = &models.Membership{
		CircleID:     circleID,
		Member:       member,
		StakeAmount:  stake,
		JoinedAt:     height,
		LastActivity: height,
		IsActive:     true,
	}
	e.escrows[key] = &models.EscrowRecord{User: member, CircleID: circleID, Amount: stake}

	circle := e.circles[circleID]
	circle.TotalStaked = satAdd(circle.TotalStaked, stake)
	circle.MemberCount++

	rep := e.reputationFor(member)
	rep.CirclesJoined++
	rep.TotalStaked = satAdd(rep.TotalStaked, stake)
	e.adjustGlobal(member, int64(e.params.JoiningBonus), height)
}

// LeaveCircle refunds the caller's full escrowed stake and removes the
// membership. The refund transfer runs first: if it fails, nothing is
// deleted and the operation can be retried.
func (e *Engine) LeaveCircle(ctx context.Context, caller uuid.UUID, circleID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	circle, ok := e.circles[circleID]
	if !ok {
		return models.E(models.CodeCircleNotFound, "circle %d does not exist", circleID)
	}
	key := memberKey{circleID, caller}
	membership, ok := e.memberships[key]
	if !ok {
		return models.E(models.CodeNotMember, "not a member of circle %d", circleID)
	}
	escrow, ok := e.escrows[key]
	if !ok {
		return models.E(models.CodeNotMember, "no escrow record for circle %d", circleID)
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("read block height: %w", err)
	}

	if err := e.tokens.Transfer(ctx, e.pool, caller, escrow.Amount); err != nil {
		return fmt.Errorf("refund transfer: %w", err)
	}

	delete(e.memberships, key)
	delete(e.escrows, key)
	circle.TotalStaked -= membership.StakeAmount
	circle.MemberCount--

	rep := e.reputationFor(caller)
	if rep.CirclesJoined > 0 {
		rep.CirclesJoined--
	}
	if rep.TotalStaked >= membership.StakeAmount {
		rep.TotalStaked -= membership.StakeAmount
	} else {
		rep.TotalStaked = 0
	}
	rep.LastUpdated = height

	e.log.Info("member left", "circle_id", circleID, "member", caller, "refund", escrow.Amount)
	e.commit(Event{Op: "leave_circle", Caller: caller, Height: height, CircleID: circleID, Amount: escrow.Amount})
	return nil
}
