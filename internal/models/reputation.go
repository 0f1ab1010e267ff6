package models

import (
	"github.com/google/uuid"
)

// UserReputation is the cross-circle aggregate tracked per user.
// TotalReputation is clamped at zero and never goes negative.
type UserReputation struct {
	User            uuid.UUID `json:"user"`
	TotalReputation uint64    `json:"total_reputation"`
	CirclesJoined   uint64    `json:"circles_joined"`
	TotalStaked     uint64    `json:"total_staked"`
	LastUpdated     uint64    `json:"last_updated"`
}

// EscrowRecord holds a member's staked funds for one circle. It exists
// iff the matching Membership exists, and Amount always equals the
// membership's StakeAmount.
type EscrowRecord struct {
	User     uuid.UUID `json:"user"`
	CircleID uint64    `json:"circle_id"`
	Amount   uint64    `json:"amount"`
}
