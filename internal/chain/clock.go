// Package chain supplies the monotonic block clock the engine consumes.
// Height lives in Postgres and is advanced by a periodic river job, so
// every API replica observes the same block counter.
package chain

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trustcircles/backend/internal/engine"
)

// HeightStore reads and advances the persisted block height.
type HeightStore interface {
	Current(ctx context.Context) (uint64, error)
	Advance(ctx context.Context) (uint64, error)
}

type PGHeightStore struct {
	pool *pgxpool.Pool
}

func NewPGHeightStore(pool *pgxpool.Pool) *PGHeightStore {
	return &PGHeightStore{pool: pool}
}

// Init seeds the singleton height row at genesis if it is missing.
func (s *PGHeightStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chain_height (id, height) VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING
	`)
	return err
}

func (s *PGHeightStore) Current(ctx context.Context) (uint64, error) {
	var height uint64
	err := s.pool.QueryRow(ctx, `SELECT height FROM chain_height WHERE id = 1`).Scan(&height)
	return height, err
}

func (s *PGHeightStore) Advance(ctx context.Context) (uint64, error) {
	var height uint64
	err := s.pool.QueryRow(ctx, `
		UPDATE chain_height SET height = height + 1 WHERE id = 1 RETURNING height
	`).Scan(&height)
	return height, err
}

// Clock adapts a HeightStore to the engine's Clock interface.
type Clock struct {
	store HeightStore
}

func NewClock(store HeightStore) *Clock {
	return &Clock{store: store}
}

var _ engine.Clock = (*Clock)(nil)

func (c *Clock) CurrentHeight(ctx context.Context) (uint64, error) {
	return c.store.Current(ctx)
}
