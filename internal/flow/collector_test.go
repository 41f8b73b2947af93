package flow_test

import (
	"context"
	"testing"
	"time"

	"github.com/vampirenirmal/flowcoord/internal/flow"
	"github.com/vampirenirmal/flowcoord/internal/flowerr"
)

// A per-collect timeout with a non-empty accumulator is success with
// partial results, not an error.
func TestCollectReturnsPartialResultsOnTimeout(t *testing.T) {
	client := make(chan flow.ClientMessage, 2)
	client <- flow.ClientMessage{Type: flow.MsgResults, PhaseID: 0, Result: "a"}
	client <- flow.ClientMessage{Type: flow.MsgResults, PhaseID: 0, Result: "b"}

	collector := flow.NewResultCollector("test-flow", client, 30*time.Millisecond)
	result, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v, want nil (partial results on timeout are not an error)", err)
	}
	batch, ok := result.ByPhase[0]
	if !ok || len(batch) != 2 || batch[0] != "a" || batch[1] != "b" {
		t.Errorf("ByPhase[0] = %v, want [a b]", batch)
	}
}

// A per-collect timeout with an empty accumulator is the one case
// CollectTimeoutError is reported for.
func TestCollectReturnsTimeoutErrorWhenAccumulatorEmpty(t *testing.T) {
	client := make(chan flow.ClientMessage)
	collector := flow.NewResultCollector("test-flow", client, 30*time.Millisecond)

	_, err := collector.Collect(context.Background())
	if err == nil {
		t.Fatal("expected a CollectTimeoutError")
	}
	if !flowerr.IsCollectTimeout(err) {
		t.Errorf("expected a CollectTimeoutError, got %T: %v", err, err)
	}
}
