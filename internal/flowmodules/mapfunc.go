package flowmodules

import (
	"context"
	"fmt"

	"github.com/vampirenirmal/flowcoord/internal/flow"
)

// MapFunc adapts a plain func(any) (any, error) into a stage Module:
// HandleInput applies fn to each input and forwards the single result
// unchanged. No state is threaded — state is always nil.
type MapFunc struct {
	fn func(any) (any, error)
}

// NewMapFunc builds a MapFunc module around fn.
func NewMapFunc(fn func(any) (any, error)) *MapFunc {
	return &MapFunc{fn: fn}
}

func (m *MapFunc) Init(ctx context.Context, args any) (any, error) { return nil, nil }

func (m *MapFunc) HandleInput(ctx context.Context, input any, state any) (any, any, error) {
	out, err := m.fn(input)
	if err != nil {
		return nil, state, err
	}
	return out, state, nil
}

func (m *MapFunc) HandleInputsDone(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

func (m *MapFunc) HandleTimeout(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

var _ flow.Module = (*MapFunc)(nil)

// Double doubles an int input.
func Double() *MapFunc {
	return NewMapFunc(func(v any) (any, error) {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("double: expected int, got %T", v)
		}
		return n * 2, nil
	})
}

// AddOne increments an int input by one.
func AddOne() *MapFunc {
	return NewMapFunc(func(v any) (any, error) {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("add_one: expected int, got %T", v)
		}
		return n + 1, nil
	})
}
