// Package flowerr defines the error kinds the flow coordinator reports to
// its clients: typed errors, errors.Is/As-friendly wrapping, and
// classification helpers, cut down to the kinds actually names.
package flowerr

import (
	"errors"
	"fmt"
)

// StartError means a phase failed to construct; no partial flow is
// exposed to the client.
type StartError struct {
	Phase string
	Cause error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("flow start failed: phase %q: %v", e.Phase, e.Cause)
}

func (e *StartError) Unwrap() error { return e.Cause }

// TimeoutError means the wall-clock flow_timeout elapsed before the tail
// phase signalled done.
type TimeoutError struct {
	FlowID string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("flow %s: timeout", e.FlowID)
}

// PhaseError means a phase worker died abnormally. Reason carries the
// worker's exit cause (a panic converted to an error, a module callback
// error, or a transport/forwarding failure).
type PhaseError struct {
	FlowID string
	Phase  int
	Reason error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("flow %s: phase %d failed: %v", e.FlowID, e.Phase, e.Reason)
}

func (e *PhaseError) Unwrap() error { return e.Reason }

// CollectTimeoutError is reported only by ResultCollector, when its own
// per-collect timeout elapses with an empty accumulator.
type CollectTimeoutError struct {
	FlowID string
}

func (e *CollectTimeoutError) Error() string {
	return fmt.Sprintf("flow %s: collect timed out with no results", e.FlowID)
}

// ErrInboxClosed is returned when a phase worker receives input after it
// has already observed end-of-input (inbox state DoneLocal/DoneAnnounced).
// Per this is a logic error that the worker reports as a
// phase failure rather than silently swallowing.
var ErrInboxClosed = errors.New("input delivered to a phase whose inbox is already closed")

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var t *TimeoutError
	return errors.As(err, &t)
}

// IsPhaseError reports whether err is (or wraps) a PhaseError.
func IsPhaseError(err error) bool {
	var p *PhaseError
	return errors.As(err, &p)
}

// IsStartError reports whether err is (or wraps) a StartError.
func IsStartError(err error) bool {
	var s *StartError
	return errors.As(err, &s)
}

// IsCollectTimeout reports whether err is (or wraps) a CollectTimeoutError.
func IsCollectTimeout(err error) bool {
	var c *CollectTimeoutError
	return errors.As(err, &c)
}
