package flowmodules

import (
	"context"
	"fmt"

	"github.com/vampirenirmal/flowcoord/internal/flow"
	"github.com/vampirenirmal/flowcoord/internal/flow/workerpool"
	"github.com/vampirenirmal/flowcoord/internal/logging"
)

// ParallelMap implements flow.SyncInputsHandler: a whole add_inputs
// batch is processed at once, fanned out across a bounded worker pool
// (internal/flow/workerpool) instead of one HandleInput call per
// element. Fn must be safe for concurrent use. HandleInput processes
// one element at a time instead; it is used whenever inputs reach the
// worker one by one (in any phase after the head, or in a head phase
// with more than one converging member, where no single worker sees the
// whole client batch).
type ParallelMap struct {
	Fn      func(any) (any, error)
	Workers int
}

func (p ParallelMap) Init(ctx context.Context, args any) (any, error) { return nil, nil }

func (p ParallelMap) HandleInput(ctx context.Context, input any, state any) (any, any, error) {
	out, err := p.Fn(input)
	return out, state, err
}

func (p ParallelMap) HandleSyncInputs(ctx context.Context, inputs []any, state any) (any, any, error) {
	pool := workerpool.New[any, any](p.Workers, logging.New("parallel_map"))
	results, err := pool.Run(ctx, inputs, func(ctx context.Context, v any) (any, error) {
		return p.Fn(v)
	})
	if err != nil {
		return nil, state, fmt.Errorf("parallel_map: %w", err)
	}
	return results, state, nil
}

func (p ParallelMap) HandleInputsDone(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

func (p ParallelMap) HandleTimeout(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

var _ flow.Module = ParallelMap{}
var _ flow.SyncInputsHandler = ParallelMap{}
