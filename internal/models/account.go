package models

import (
	"time"

	"github.com/google/uuid"
)

// System account ids for the token ledger.
var (
	// EscrowPoolAccountID custodies every member's staked funds.
	EscrowPoolAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	// PlatformAccountID collects the protocol fee on funding deposits.
	PlatformAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// Account is a token-holding principal. The id doubles as the caller
// identity the engine sees.
type Account struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	BalanceUnits    uint64    `json:"balance_units"`
	MaxStakePerDay  *uint64   `json:"max_stake_per_day,omitempty"`
	IsSystemAccount bool      `json:"is_system_account"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type APIKey struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	KeyHash   string    `json:"-"`
	KeyPrefix string    `json:"key_prefix"`
	IsActive  bool      `json:"is_active"`
}
