// Package flow implements the flow coordinator: a runtime that drives a
// stream of inputs through a linear pipeline of user-defined phases,
// relays results back to a client, enforces a wall-clock timeout over the
// whole flow, and supports converging phases (one logical phase realized
// by N parallel worker instances). See SPEC_FULL.md for the full design.
package flow

import "context"

// Behavior is one flag in a phase's behavior set.
type Behavior uint8

const (
	// BehaviorStage is the default: every output a module returns is
	// forwarded immediately.
	BehaviorStage Behavior = 0
	// BehaviorAccumulate marks a phase that buffers outputs and only
	// forwards them from HandleInputsDone. The worker itself does not
	// enforce buffering — it simply forwards whatever the module
	// returns from each callback, and an accumulate module is expected
	// to return nothing from HandleInput.
	BehaviorAccumulate Behavior = 1 << 0
	// BehaviorConverge marks one of N peers backing a single logical
	// phase; set by the Converge PhaseSpec constructor.
	BehaviorConverge Behavior = 1 << 1
)

// Behaviors is the set drawn from {accumulate, converge, stage} that
// attaches to a phase description.
type Behaviors uint8

// Has reports whether b includes the given flag.
func (b Behaviors) Has(f Behavior) bool { return Behaviors(f)&b != 0 }

// With returns b with f added.
func (b Behaviors) With(f Behavior) Behaviors { return b | Behaviors(f) }

// Stage reports whether the set is just the default stage behavior (no
// accumulate, no converge flag set).
func (b Behaviors) Stage() bool { return !b.Has(BehaviorAccumulate) && !b.Has(BehaviorConverge) }

// Module is the opaque phase module contract the coordinator requires
// to invoke a phase. Business logic of concrete phases (map,
// reduce, link, custom) is out of scope for this package; Module is the
// seam external callers implement against.
//
// Every callback returns a possibly-empty ordered sequence of outputs
// plus the next user_state. The worker forwards outputs to the next
// phase unchanged and in order.
//
// The output of a callback is untyped (any) by design, mirroring the
// source's dynamically-typed terms: a nil output means no output: a
// []any means an ordered sequence whose elements are each forwarded
// downstream (and distributed) independently, and any other value is a
// single atomic output forwarded as one unit. This distinction is
// observable through xformer — see Flow.applyXformer, the one place
// this package inspects a result payload's shape.
type Module interface {
	// Init builds the module's initial user_state from its init args.
	// An error here fails flow construction with a StartError.
	Init(ctx context.Context, args any) (state any, err error)

	// HandleInput processes one input element.
	HandleInput(ctx context.Context, input any, state any) (output any, next any, err error)

	// HandleInputsDone is invoked once, after all pending work has
	// drained, when the worker observes end-of-input from upstream.
	HandleInputsDone(ctx context.Context, state any) (output any, next any, err error)

	// HandleTimeout is invoked in place of HandleInput/HandleSyncInputs
	// when the worker's own per-input timeout elapses before the
	// in-flight callback returns. Configured via
	// flowconfig.Config.InputTimeout; zero (the default) disables the
	// timer entirely, and HandleTimeout is never called. Most modules
	// can return (nil, state, nil).
	HandleTimeout(ctx context.Context, state any) (output any, next any, err error)
}

// SyncInputsHandler is an optional fast path for batched submission. A
// module that implements it is called once per add_inputs batch instead
// of once per element when it backs a single-worker head phase. Inputs
// that reach a worker one at a time (any phase after the head, or a
// head phase with more than one converging member) go to HandleInput.
type SyncInputsHandler interface {
	HandleSyncInputs(ctx context.Context, inputs []any, state any) (output any, next any, err error)
}

// RetryPolicy is an optional extension a module may implement to tell the
// worker whether a HandleInput/HandleSyncInputs error should be treated
// as retryable. HandleInputsDone is never retried. The base worker contract treats any
// callback error as fatal to the worker; this is a documented extension
// point for modules that want finer control.
type RetryPolicy interface {
	CanRetry(err error) bool
}
