package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trustcircles/backend/internal/models"
)

const ctxStakeKey contextKey = "parsed_stake"

// parsedStake is stored in context so the handler can read the stake
// without re-parsing the body. Create-circle bodies carry the threshold,
// which doubles as the founding stake.
type parsedStake struct {
	StakeAmount    uint64 `json:"stake_amount"`
	StakeThreshold uint64 `json:"stake_threshold"`
}

func (p parsedStake) amount() uint64 {
	if p.StakeAmount > 0 {
		return p.StakeAmount
	}
	return p.StakeThreshold
}

// StakeFromCtx returns the stake parsed by StakeCheck, or 0 if not set.
func StakeFromCtx(ctx context.Context) uint64 {
	if p, ok := ctx.Value(ctxStakeKey).(*parsedStake); ok {
		return p.amount()
	}
	return 0
}

// StakeCheck enforces the account's optional per-day stake limit on
// stake-moving endpoints. Reads the body to extract the stake, then
// replaces r.Body so downstream handlers can re-read it.
func StakeCheck(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc := AccountFromCtx(r.Context())
			if acc == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
				return
			}
			// Restore body for the handler.
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			var peek parsedStake
			if err := json.Unmarshal(bodyBytes, &peek); err != nil {
				http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
				return
			}
			if peek.amount() == 0 {
				http.Error(w, `{"error":"stake must be > 0"}`, http.StatusBadRequest)
				return
			}

			if acc.MaxStakePerDay != nil {
				staked, err := dailyStakeFn(r.Context(), pool, acc.ID)
				if err != nil {
					http.Error(w, `{"error":"failed to check daily stake"}`, http.StatusInternalServerError)
					return
				}
				if staked+peek.amount() > *acc.MaxStakePerDay {
					http.Error(w, fmt.Sprintf(`{"error":"daily stake %d + %d exceeds limit %d"}`,
						staked, peek.amount(), *acc.MaxStakePerDay), http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxStakeKey, &peek)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// dailyStakeFn is the function used to compute today's staked total.
// Tests can replace this to avoid hitting a real database.
var dailyStakeFn = defaultDailyStake

// defaultDailyStake sums today's transfers into the escrow pool (UTC).
func defaultDailyStake(ctx context.Context, pool *pgxpool.Pool, accountID uuid.UUID) (uint64, error) {
	var total uint64
	err := pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_units), 0)
		FROM token_transfers
		WHERE debit_account_id = $1 AND credit_account_id = $2
		  AND created_at >= CURRENT_DATE
	`, accountID, models.EscrowPoolAccountID).Scan(&total)
	return total, err
}
