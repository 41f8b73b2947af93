package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/vampirenirmal/flowcoord/internal/flow/workerpool"
)

func TestRunPreservesSubmissionOrder(t *testing.T) {
	pool := workerpool.New[int, int](4, nil)

	items := []int{5, 1, 4, 2, 3}
	results, err := pool.Run(context.Background(), items, func(ctx context.Context, v int) (int, error) {
		return v * 10, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []int{50, 10, 40, 20, 30}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %d, want %d", i, results[i], want[i])
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	pool := workerpool.New[int, int](2, nil)

	var inFlight int32
	var maxSeen int32
	items := make([]int, 20)

	_, err := pool.Run(context.Background(), items, func(ctx context.Context, v int) (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			seen := atomic.LoadInt32(&maxSeen)
			if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
				break
			}
		}
		return v, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if maxSeen > 2 {
		t.Errorf("observed %d concurrent processors, want at most 2", maxSeen)
	}
}

func TestRunReturnsFirstError(t *testing.T) {
	pool := workerpool.New[int, int](4, nil)
	boom := errors.New("deliberate failure")

	_, err := pool.Run(context.Background(), []int{1, 2, 3}, func(ctx context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	if err == nil {
		t.Fatal("expected Run() to return an error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want it to wrap %v", err, boom)
	}
}

func TestRunOnEmptyInput(t *testing.T) {
	pool := workerpool.New[int, int](4, nil)
	results, err := pool.Run(context.Background(), nil, func(ctx context.Context, v int) (int, error) {
		t.Fatal("process should not be called for an empty input slice")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results != nil {
		t.Errorf("Run() = %v, want nil", results)
	}
}
