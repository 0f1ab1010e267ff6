package models

import (
	"github.com/google/uuid"
)

// Bounded-length caps for caller-supplied text fields.
const (
	MaxCircleNameLen  = 64
	MaxKindLen        = 32
	MaxDescriptionLen = 256
)

// TrustCircle is a staked community. TotalStaked and MemberCount are
// maintained by the engine and always equal the sum/count over active
// memberships.
type TrustCircle struct {
	ID               uint64    `json:"id"`
	Name             string    `json:"name"`
	Creator          uuid.UUID `json:"creator"`
	IsPublic         bool      `json:"is_public"`
	StakeThreshold   uint64    `json:"stake_threshold"`
	TotalStaked      uint64    `json:"total_staked"`
	MemberCount      uint64    `json:"member_count"`
	CreatedAt        uint64    `json:"created_at"`
	ReputationWeight uint64    `json:"reputation_weight"`
}

// Membership is a member's record inside one circle. ReputationScore is
// circle-scoped and never negative.
type Membership struct {
	CircleID        uint64    `json:"circle_id"`
	Member          uuid.UUID `json:"member"`
	StakeAmount     uint64    `json:"stake_amount"`
	ReputationScore uint64    `json:"reputation_score"`
	JoinedAt        uint64    `json:"joined_at"`
	LastActivity    uint64    `json:"last_activity"`
	IsActive        bool      `json:"is_active"`
}
