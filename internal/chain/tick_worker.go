package chain

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

type TickArgs struct{}

func (TickArgs) Kind() string { return "chain_tick" }

// TickWorker advances the block height by one. It is scheduled as a
// river periodic job at the configured block interval.
type TickWorker struct {
	river.WorkerDefaults[TickArgs]
	store HeightStore
	log   *slog.Logger
}

func NewTickWorker(store HeightStore, log *slog.Logger) *TickWorker {
	if log == nil {
		log = slog.Default()
	}
	return &TickWorker{store: store, log: log}
}

func (w *TickWorker) Work(ctx context.Context, _ *river.Job[TickArgs]) error {
	height, err := w.store.Advance(ctx)
	if err != nil {
		return err
	}
	w.log.Debug("block produced", "height", height)
	return nil
}
