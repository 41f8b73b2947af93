package flow

import (
	"context"
	"time"
)

// RetryConfig controls the exponential backoff a PhaseWorker applies
// around a callback when its module implements RetryPolicy. Narrowed to
// the one knob that matters here: how many times and how long to wait
// between attempts. A module that does not implement RetryPolicy never
// retries, regardless of this config.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig gives a phase module a reasonable starting point.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:   3,
	InitialDelay:  100 * time.Millisecond,
	MaxDelay:      5 * time.Second,
	BackoffFactor: 2.0,
}

// callWithRetry invokes fn, retrying per cfg only while the module's
// RetryPolicy says the returned error is retryable. A context
// cancellation during the backoff wait returns the last attempt's
// result immediately rather than retrying.
func (w *PhaseWorker) callWithRetry(ctx context.Context, cfg RetryConfig, fn func() (any, any, error)) (out any, next any, err error) {
	policy, ok := w.module.(RetryPolicy)
	if !ok {
		return w.callWithTimeout(ctx, fn)
	}

	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		out, next, err = w.callWithTimeout(ctx, fn)
		if err == nil || attempt >= cfg.MaxAttempts || !policy.CanRetry(err) {
			return out, next, err
		}
		w.logger.Warn("phase callback failed, retrying", "phase", w.name, "attempt", attempt, "error", err, "next_delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return out, next, err
		}
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// callWithTimeout runs fn and, if w.inputTimeout is set and elapses
// before fn returns, abandons the wait and calls the module's
// HandleTimeout instead — fn's goroutine is left to finish on its own;
// its result, whenever it arrives, is discarded into a buffered
// channel so it never leaks. w.inputTimeout == 0 disables this
// entirely and calls fn directly on the worker's own goroutine.
func (w *PhaseWorker) callWithTimeout(ctx context.Context, fn func() (any, any, error)) (out any, next any, err error) {
	if w.inputTimeout <= 0 {
		return w.call(fn)
	}

	type result struct {
		out, next any
		err       error
	}
	done := make(chan result, 1)
	go func() {
		o, n, e := w.call(fn)
		done <- result{o, n, e}
	}()

	select {
	case r := <-done:
		return r.out, r.next, r.err
	case <-time.After(w.inputTimeout):
		w.logger.Warn("phase callback exceeded input_timeout, invoking HandleTimeout", "phase", w.name, "timeout", w.inputTimeout)
		state := w.state
		return w.call(func() (any, any, error) {
			return w.module.HandleTimeout(ctx, state)
		})
	case <-ctx.Done():
		return nil, w.state, ctx.Err()
	}
}
