package flow

import (
	"context"
	"errors"
	"time"

	"github.com/vampirenirmal/flowcoord/internal/flowerr"
)

// FinalResult is what a ResultCollector hands back once a flow reaches
// its terminal message. ByPhase groups every delivered result batch by
// the phase_id that produced it — in practice just the tail phase,
// since that is the only phase whose output a Flow ever relays. Single
// collapses ByPhase's one relevant entry: the one result if exactly one
// batch arrived, or the full ordered slice if more than one did. Single
// is nil if no results were ever delivered (a flow that produces only
// side effects through the cache, for instance).
type FinalResult struct {
	Single  any
	ByPhase map[int][]any
}

// ResultCollector is the client-side accumulator a caller pairs with a
// Flow's client channel: it drains ClientMessages, buckets MsgResults by
// phase, and returns once the flow's one terminal message (MsgDone or
// MsgError) arrives, or its own collect_timeout elapses first.
type ResultCollector struct {
	flowID  string
	ch      <-chan ClientMessage
	timeout time.Duration
}

// NewResultCollector builds a collector reading from ch, the same
// channel passed as Start's client argument.
func NewResultCollector(flowID string, ch <-chan ClientMessage, collectTimeout time.Duration) *ResultCollector {
	return &ResultCollector{flowID: flowID, ch: ch, timeout: collectTimeout}
}

// Collect blocks until the flow's terminal message arrives, the
// collector's own timeout elapses since the last message, or ctx is
// canceled. A MsgError terminal is returned as the collector's error
// value, not wrapped further. A timeout with a non-empty accumulator is
// not an error: it returns the partial results collected so far, the
// same as a normal MsgDone. CollectTimeoutError is only returned when
// the timeout fires before any result has ever arrived.
func (c *ResultCollector) Collect(ctx context.Context) (FinalResult, error) {
	byPhase := make(map[int][]any)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-c.ch:
			if !ok {
				return FinalResult{}, errors.New("flow client channel closed before a terminal message arrived")
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(c.timeout)

			switch msg.Type {
			case MsgResults:
				byPhase[msg.PhaseID] = append(byPhase[msg.PhaseID], msg.Result)
			case MsgDone:
				return finalize(byPhase), nil
			case MsgError:
				return FinalResult{}, msg.Err
			}
		case <-timer.C:
			if len(byPhase) > 0 {
				return finalize(byPhase), nil
			}
			return FinalResult{}, &flowerr.CollectTimeoutError{FlowID: c.flowID}
		case <-ctx.Done():
			return FinalResult{}, ctx.Err()
		}
	}
}

func finalize(byPhase map[int][]any) FinalResult {
	fr := FinalResult{ByPhase: byPhase}
	for _, batches := range byPhase {
		switch len(batches) {
		case 0:
		case 1:
			fr.Single = batches[0]
		default:
			fr.Single = append([]any(nil), batches...)
		}
	}
	return fr
}
