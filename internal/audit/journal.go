// Package audit appends committed engine operations to a durable journal.
// Writes happen off the operation path through a river job, so a slow or
// unavailable journal never blocks state transitions.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"

	"github.com/trustcircles/backend/internal/engine"
)

type AppendArgs struct {
	Height     uint64    `json:"height"`
	Op         string    `json:"op"`
	Caller     uuid.UUID `json:"caller"`
	CircleID   uint64    `json:"circle_id,omitempty"`
	ProposalID uint64    `json:"proposal_id,omitempty"`
	Amount     uint64    `json:"amount,omitempty"`
}

func (AppendArgs) Kind() string { return "audit_append" }

// AppendWorker writes one journal row per committed operation.
type AppendWorker struct {
	river.WorkerDefaults[AppendArgs]
	pool *pgxpool.Pool
}

func NewAppendWorker(pool *pgxpool.Pool) *AppendWorker {
	return &AppendWorker{pool: pool}
}

func (w *AppendWorker) Work(ctx context.Context, job *river.Job[AppendArgs]) error {
	a := job.Args
	_, err := w.pool.Exec(ctx, `
		INSERT INTO audit_log (height, op, caller, circle_id, proposal_id, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.Height, a.Op, a.Caller, a.CircleID, a.ProposalID, a.Amount)
	return err
}

// InsertFunc enqueues an audit append; typically a closure over
// river.Client.Insert.
type InsertFunc func(ctx context.Context, args AppendArgs) error

// Hook adapts an InsertFunc into an engine commit hook. Enqueue failures
// are logged and dropped: the journal is an observer, not a participant,
// of the state transition.
func Hook(insert InsertFunc, log *slog.Logger) func(engine.Event) {
	if log == nil {
		log = slog.Default()
	}
	return func(ev engine.Event) {
		go func() {
			if err := insert(context.Background(), AppendArgs{
				Height:     ev.Height,
				Op:         ev.Op,
				Caller:     ev.Caller,
				CircleID:   ev.CircleID,
				ProposalID: ev.ProposalID,
				Amount:     ev.Amount,
			}); err != nil {
				log.Error("audit append enqueue failed", "op", ev.Op, "error", err)
			}
		}()
	}
}
