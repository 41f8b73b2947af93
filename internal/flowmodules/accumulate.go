package flowmodules

import (
	"context"
	"fmt"

	"github.com/vampirenirmal/flowcoord/internal/flow"
)

// SumAccumulate keeps a running int total as its user_state and emits
// the total exactly once, from HandleInputsDone.
type SumAccumulate struct{}

func (SumAccumulate) Init(ctx context.Context, args any) (any, error) { return 0, nil }

func (SumAccumulate) HandleInput(ctx context.Context, input any, state any) (any, any, error) {
	n, ok := input.(int)
	if !ok {
		return nil, state, fmt.Errorf("sum_accumulate: expected int, got %T", input)
	}
	total, _ := state.(int)
	return nil, total + n, nil
}

func (SumAccumulate) HandleInputsDone(ctx context.Context, state any) (any, any, error) {
	total, _ := state.(int)
	return total, state, nil
}

func (SumAccumulate) HandleTimeout(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

var _ flow.Module = SumAccumulate{}
