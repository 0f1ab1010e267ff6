package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trustcircles/backend/internal/models"
)

// EndorseMember moves amount of circle-scoped reputation from caller to
// target inside circleID, and credits target's global reputation by the
// same amount. Endorsement transfers reputation; it never creates it.
func (e *Engine) EndorseMember(ctx context.Context, caller uuid.UUID, circleID uint64, target uuid.UUID, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	endorser, ok := e.memberships[memberKey{circleID, caller}]
	if !ok {
		return models.E(models.CodeNotMember, "endorser is not a member of circle %d", circleID)
	}
	endorsee, ok := e.memberships[memberKey{circleID, target}]
	if !ok {
		return models.E(models.CodeNotMember, "target is not a member of circle %d", circleID)
	}
	if amount == 0 || amount > e.params.MaxRepTransfer {
		return models.E(models.CodeInvalidParams,
			"endorsement amount must be in 1..%d", e.params.MaxRepTransfer)
	}
	if caller == target {
		return models.E(models.CodeInvalidParams, "cannot endorse yourself")
	}
	if endorser.ReputationScore < amount {
		return models.E(models.CodeInsufficientBalance,
			"circle reputation %d below endorsement %d", endorser.ReputationScore, amount)
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("read block height: %w", err)
	}

	endorser.ReputationScore -= amount
	endorsee.ReputationScore = satAdd(endorsee.ReputationScore, amount)
	endorser.LastActivity = height
	endorsee.LastActivity = height
	e.adjustGlobal(target, int64(amount), height)

	e.log.Info("member endorsed", "circle_id", circleID, "endorser", caller, "target", target, "amount", amount)
	e.commit(Event{Op: "endorse_member", Caller: caller, Height: height, CircleID: circleID, Amount: amount})
	return nil
}

// RewardMember mints amount of reputation for target, both circle-scoped
// and global. Unlike endorsement this creates reputation, so direct calls
// are restricted to the circle creator; proposal execution uses the
// ungated path.
func (e *Engine) RewardMember(ctx context.Context, caller uuid.UUID, circleID uint64, target uuid.UUID, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	circle, ok := e.circles[circleID]
	if !ok {
		return models.E(models.CodeCircleNotFound, "circle %d does not exist", circleID)
	}
	if _, ok := e.memberships[memberKey{circleID, caller}]; !ok {
		return models.E(models.CodeNotMember, "caller is not a member of circle %d", circleID)
	}
	if caller != circle.Creator {
		return models.E(models.CodeUnauthorized, "only the circle creator may reward directly")
	}

	height, err := e.clock.CurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("read block height: %w", err)
	}

	if err := e.applyReward(circleID, target, amount, height); err != nil {
		return err
	}

	e.log.Info("member rewarded", "circle_id", circleID, "caller", caller, "target", target, "amount", amount)
	e.commit(Event{Op: "reward_member", Caller: caller, Height: height, CircleID: circleID, Amount: amount})
	return nil
}

// applyReward validates and applies a reputation mint. Caller holds the
// lock. Shared between RewardMember and reward-proposal execution.
func (e *Engine) applyReward(circleID uint64, target uuid.UUID, amount, height uint64) error {
	member, ok := e.memberships[memberKey{circleID, target}]
	if !ok {
		return models.E(models.CodeNotMember, "target is not a member of circle %d", circleID)
	}
	if amount == 0 || amount > e.params.MaxRepTransfer {
		return models.E(models.CodeInvalidParams,
			"reward amount must be in 1..%d", e.params.MaxRepTransfer)
	}

	member.ReputationScore = satAdd(member.ReputationScore, amount)
	member.LastActivity = height
	e.adjustGlobal(target, int64(amount), height)
	return nil
}
