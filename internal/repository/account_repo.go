package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trustcircles/backend/internal/models"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, balance_units, max_stake_per_day, is_system_account)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.Name, a.PasswordHash, a.BalanceUnits, a.MaxStakePerDay, a.IsSystemAccount).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, balance_units, max_stake_per_day, is_system_account, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.BalanceUnits, &a.MaxStakePerDay, &a.IsSystemAccount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, balance_units, max_stake_per_day, is_system_account, created_at, updated_at
		FROM accounts WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.BalanceUnits, &a.MaxStakePerDay, &a.IsSystemAccount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
