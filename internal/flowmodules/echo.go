package flowmodules

import (
	"context"

	"github.com/vampirenirmal/flowcoord/internal/flow"
)

// Echo forwards two copies of each input as an ordered []any sequence,
// demonstrating Module's batch-output convention: the xformer applies
// to each copy independently rather than once to the pair as a whole.
type Echo struct{}

func (Echo) Init(ctx context.Context, args any) (any, error) { return nil, nil }

func (Echo) HandleInput(ctx context.Context, input any, state any) (any, any, error) {
	return []any{input, input}, state, nil
}

func (Echo) HandleInputsDone(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

func (Echo) HandleTimeout(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

var _ flow.Module = Echo{}
