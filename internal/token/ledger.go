// Package token implements the native transfer primitive the engine
// consumes, backed by Postgres accounts and a double-entry transfer
// journal.
package token

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trustcircles/backend/internal/engine"
	"github.com/trustcircles/backend/internal/models"
)

type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

var _ engine.TokenLedger = (*Ledger)(nil)

// Transfer atomically moves amount from one account to another and
// journals the movement. The debit is a conditional UPDATE, so an
// underfunded source fails the whole transaction without touching either
// balance.
func (l *Ledger) Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance_units = balance_units - $1, updated_at = now()
		WHERE id = $2 AND balance_units >= $1
	`, amount, from)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("debit %s: %w", from, engine.ErrInsufficientFunds)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET balance_units = balance_units + $1, updated_at = now() WHERE id = $2
	`, amount, to); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO token_transfers (tx_type, debit_account_id, credit_account_id, amount_units)
		VALUES ('TRANSFER', $1, $2, $3)
	`, from, to, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Deposit mints amount onto an account, skimming feePercent to the
// platform account. Used by the funding/faucet path only; stake
// movements go through Transfer and are never charged a fee.
func (l *Ledger) Deposit(ctx context.Context, to uuid.UUID, amount, feePercent uint64) error {
	if amount == 0 {
		return nil
	}
	fee, net := SplitFee(amount, feePercent)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET balance_units = balance_units + $1, updated_at = now() WHERE id = $2
	`, net, to); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO token_transfers (tx_type, credit_account_id, amount_units)
		VALUES ('DEPOSIT', $1, $2)
	`, to, net); err != nil {
		return err
	}
	if fee > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE accounts SET balance_units = balance_units + $1, updated_at = now() WHERE id = $2
		`, fee, models.PlatformAccountID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO token_transfers (tx_type, credit_account_id, amount_units)
			VALUES ('PROTOCOL_FEE', $1, $2)
		`, models.PlatformAccountID, fee); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Balance returns the current balance for an account.
func (l *Ledger) Balance(ctx context.Context, id uuid.UUID) (uint64, error) {
	var balance uint64
	err := l.pool.QueryRow(ctx, `
		SELECT balance_units FROM accounts WHERE id = $1
	`, id).Scan(&balance)
	return balance, err
}

// SplitFee divides amount into the protocol fee and the net credit.
func SplitFee(amount, feePercent uint64) (fee, net uint64) {
	fee = (amount/100)*feePercent + (amount%100)*feePercent/100
	return fee, amount - fee
}
