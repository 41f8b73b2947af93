package flowmodules_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vampirenirmal/flowcoord/internal/flowmodules"
)

func TestIdentityForwardsUnchanged(t *testing.T) {
	out, state, err := flowmodules.Identity{}.HandleInput(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("HandleInput() error = %v", err)
	}
	if out != 7 || state != nil {
		t.Errorf("HandleInput() = (%v, %v), want (7, nil)", out, state)
	}
}

func TestDoubleAndAddOne(t *testing.T) {
	out, _, err := flowmodules.Double().HandleInput(context.Background(), 4, nil)
	if err != nil {
		t.Fatalf("Double HandleInput() error = %v", err)
	}
	if out != 8 {
		t.Errorf("Double(4) = %v, want 8", out)
	}

	out, _, err = flowmodules.AddOne().HandleInput(context.Background(), 4, nil)
	if err != nil {
		t.Fatalf("AddOne HandleInput() error = %v", err)
	}
	if out != 5 {
		t.Errorf("AddOne(4) = %v, want 5", out)
	}
}

func TestDoubleRejectsNonInt(t *testing.T) {
	_, _, err := flowmodules.Double().HandleInput(context.Background(), "nope", nil)
	if err == nil {
		t.Fatal("expected an error for a non-int input")
	}
}

func TestSumAccumulateTotalsOnDone(t *testing.T) {
	mod := flowmodules.SumAccumulate{}
	state, err := mod.Init(context.Background(), nil)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for _, n := range []int{1, 2, 3, 4} {
		var out any
		out, state, err = mod.HandleInput(context.Background(), n, state)
		if err != nil {
			t.Fatalf("HandleInput() error = %v", err)
		}
		if out != nil {
			t.Errorf("HandleInput() output = %v, want nil (accumulate emits only on done)", out)
		}
	}

	total, _, err := mod.HandleInputsDone(context.Background(), state)
	if err != nil {
		t.Fatalf("HandleInputsDone() error = %v", err)
	}
	if total != 10 {
		t.Errorf("total = %v, want 10", total)
	}
}

func TestEchoReturnsTwoCopiesAsSequence(t *testing.T) {
	out, _, err := flowmodules.Echo{}.HandleInput(context.Background(), "x", nil)
	if err != nil {
		t.Fatalf("HandleInput() error = %v", err)
	}
	batch, ok := out.([]any)
	if !ok || len(batch) != 2 || batch[0] != "x" || batch[1] != "x" {
		t.Errorf("HandleInput() = %v, want []any{\"x\", \"x\"}", out)
	}
}

func TestCrasherFailsAfterConfiguredCount(t *testing.T) {
	mod := flowmodules.Crasher{FailAfter: 2}
	state, err := mod.Init(context.Background(), nil)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		_, state, err = mod.HandleInput(context.Background(), i, state)
		if err != nil {
			t.Fatalf("HandleInput() #%d unexpected error = %v", i, err)
		}
	}

	_, _, err = mod.HandleInput(context.Background(), 99, state)
	if err == nil {
		t.Fatal("expected an error on the input past FailAfter")
	}
}

func TestMemoizeServesRepeatedInputFromCache(t *testing.T) {
	var calls int32
	mod := flowmodules.NewMemoize(func(v any) (any, error) {
		atomic.AddInt32(&calls, 1)
		return v.(int) * 2, nil
	}, time.Minute)

	for i := 0; i < 3; i++ {
		out, _, err := mod.HandleInput(context.Background(), 5, nil)
		if err != nil {
			t.Fatalf("HandleInput() error = %v", err)
		}
		if out != 10 {
			t.Errorf("HandleInput(5) = %v, want 10", out)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fn called %d times, want 1 (repeats should hit the cache)", got)
	}

	out, _, err := mod.HandleInput(context.Background(), 6, nil)
	if err != nil {
		t.Fatalf("HandleInput(6) error = %v", err)
	}
	if out != 12 {
		t.Errorf("HandleInput(6) = %v, want 12", out)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("fn called %d times, want 2 (a new input is a cache miss)", got)
	}

	hits, misses, size := mod.Stats()
	if hits != 2 || misses != 2 || size != 2 {
		t.Errorf("Stats() = (hits=%d, misses=%d, size=%d), want (2, 2, 2)", hits, misses, size)
	}
}

func TestParallelMapHandleSyncInputs(t *testing.T) {
	mod := flowmodules.ParallelMap{
		Fn: func(v any) (any, error) {
			return v.(int) * 2, nil
		},
		Workers: 3,
	}
	out, _, err := mod.HandleSyncInputs(context.Background(), []any{1, 2, 3}, nil)
	if err != nil {
		t.Fatalf("HandleSyncInputs() error = %v", err)
	}
	results, ok := out.([]any)
	if !ok || len(results) != 3 {
		t.Fatalf("HandleSyncInputs() = %v, want a 3-element []any", out)
	}
	want := []any{2, 4, 6}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %v, want %v", i, results[i], want[i])
		}
	}
}
