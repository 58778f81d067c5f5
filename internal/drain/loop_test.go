package drain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeBatcher struct {
	mu      sync.Mutex
	calls   int
	limits  []int
	results []int
	errs    []error
}

func (f *fakeBatcher) ProcessBatch(_ context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.limits = append(f.limits, limit)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var n int
	if i < len(f.results) {
		n = f.results[i]
	}
	return n, err
}

func (f *fakeBatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestLoopPassesBatchSize(t *testing.T) {
	batcher := &fakeBatcher{results: []int{5}}
	loop := NewLoop(Config{PollInterval: time.Hour, BatchSize: 25}, batcher, zap.NewNop())

	loop.tick(context.Background())

	if batcher.count() != 1 {
		t.Fatalf("expected one batch, got %d", batcher.count())
	}
	if batcher.limits[0] != 25 {
		t.Fatalf("limit mismatch: %d", batcher.limits[0])
	}
}

func TestLoopEmptyStreak(t *testing.T) {
	batcher := &fakeBatcher{results: []int{0, 0, 3, 0}}
	loop := NewLoop(Config{PollInterval: time.Hour, BatchSize: 10}, batcher, zap.NewNop())
	ctx := context.Background()

	loop.tick(ctx)
	if loop.emptyStreak != 1 {
		t.Fatalf("first empty poll must start the streak: %d", loop.emptyStreak)
	}
	loop.tick(ctx)
	if loop.emptyStreak != 2 {
		t.Fatalf("repeat empty polls must extend the streak silently: %d", loop.emptyStreak)
	}
	loop.tick(ctx)
	if loop.emptyStreak != 0 {
		t.Fatalf("work must reset the streak: %d", loop.emptyStreak)
	}
	loop.tick(ctx)
	if loop.emptyStreak != 1 {
		t.Fatalf("streak must restart after new work: %d", loop.emptyStreak)
	}
}

func TestLoopRetriesAfterError(t *testing.T) {
	batcher := &fakeBatcher{
		errs:    []error{errors.New("deadlock detected"), nil},
		results: []int{0, 4},
	}
	loop := NewLoop(Config{PollInterval: time.Hour, BatchSize: 10}, batcher, zap.NewNop())
	ctx := context.Background()

	loop.tick(ctx)
	loop.tick(ctx)

	if batcher.count() != 2 {
		t.Fatalf("an error must not stop polling, got %d calls", batcher.count())
	}
	if loop.emptyStreak != 0 {
		t.Fatalf("successful batch must reset state: %d", loop.emptyStreak)
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	batcher := &fakeBatcher{}
	loop := NewLoop(Config{PollInterval: time.Millisecond, BatchSize: 10}, batcher, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for batcher.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if batcher.count() < 2 {
		t.Fatalf("loop must keep polling, got %d calls", batcher.count())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancellation is an orderly shutdown: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run must return on context cancellation")
	}
}
