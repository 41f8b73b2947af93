package flowmodules

import (
	"context"
	"fmt"

	"github.com/vampirenirmal/flowcoord/internal/flow"
)

// Crasher returns an error from HandleInput once it has processed
// FailAfter inputs, for exercising a flow's abnormal-termination path:
// a PhaseError delivered as the flow's one terminal message.
type Crasher struct {
	FailAfter int
}

type crasherState struct {
	count int
}

func (c Crasher) Init(ctx context.Context, args any) (any, error) {
	return &crasherState{}, nil
}

func (c Crasher) HandleInput(ctx context.Context, input any, state any) (any, any, error) {
	st, _ := state.(*crasherState)
	st.count++
	if st.count > c.FailAfter {
		return nil, st, fmt.Errorf("crasher: deliberate failure after %d inputs", c.FailAfter)
	}
	return input, st, nil
}

func (c Crasher) HandleInputsDone(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

func (c Crasher) HandleTimeout(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

var _ flow.Module = Crasher{}
