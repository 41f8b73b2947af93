package flowmodules

import (
	"context"

	"github.com/vampirenirmal/flowcoord/internal/flow"
)

// Identity forwards every input unchanged. Useful as a converging
// phase's member when only the fan-in/fan-out mechanics, not any
// transformation, are under test.
type Identity struct{}

func (Identity) Init(ctx context.Context, args any) (any, error) { return nil, nil }

func (Identity) HandleInput(ctx context.Context, input any, state any) (any, any, error) {
	return input, state, nil
}

func (Identity) HandleInputsDone(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

func (Identity) HandleTimeout(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

var _ flow.Module = Identity{}
