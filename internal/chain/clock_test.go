package chain

import (
	"context"
	"testing"
)

type memHeightStore struct {
	height uint64
}

func (s *memHeightStore) Current(context.Context) (uint64, error) { return s.height, nil }
func (s *memHeightStore) Advance(context.Context) (uint64, error) {
	s.height++
	return s.height, nil
}

func TestClock_ReadsStoreHeight(t *testing.T) {
	store := &memHeightStore{height: 42}
	clock := NewClock(store)

	h, err := clock.CurrentHeight(context.Background())
	if err != nil {
		t.Fatalf("CurrentHeight: %v", err)
	}
	if h != 42 {
		t.Errorf("height: got %d, want 42", h)
	}
}

func TestTickWorker_AdvancesMonotonically(t *testing.T) {
	store := &memHeightStore{}
	w := NewTickWorker(store, nil)

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := w.Work(ctx, nil); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if store.height != uint64(i) {
			t.Fatalf("height after tick %d: got %d", i, store.height)
		}
	}
}
