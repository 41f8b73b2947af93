package flow

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// ConvergenceGroup coordinates the PhaseWorkers backing one logical
// phase: its member list (the first member is the leader) and the
// end-of-input quorum. Members are not told about their partners; the
// group's monitor goroutine, not the leader, counts member end-of-input
// and reports failures.
// Every phase in a flow — including an ordinary single-worker stage or
// accumulate phase — is backed by exactly one ConvergenceGroup. For a
// one-member group the "quorum" is trivially satisfied by that member's
// own local end-of-input, which reproduces the same propagation a plain
// PhaseWorker needs on its own. Unifying the two keeps end-of-input
// propagation in one place instead of duplicating it for the N=1 and
// N>1 cases.
type ConvergenceGroup struct {
	phaseID int
	name    string
	members []*PhaseWorker
	// next holds the downstream phase's members — empty for the tail
	// phase, whose results go straight to the flow instead.
	next []*PhaseWorker

	flow   *Flow
	logger *log.Logger

	doneCh  chan struct{}
	failCh  chan error
	eoiOnce sync.Once
}

func newConvergenceGroup(phaseID int, name string, n int, fl *Flow, logger *log.Logger) *ConvergenceGroup {
	return &ConvergenceGroup{
		phaseID: phaseID,
		name:    name,
		members: make([]*PhaseWorker, 0, n),
		flow:    fl,
		logger:  logger,
		doneCh:  make(chan struct{}, n),
		failCh:  make(chan error, 1),
	}
}

// leader is deterministically the first-created member;
// it exists today as the addressable handle a future partner-registry
// extension would hang off, not because any current operation singles
// it out.
func (g *ConvergenceGroup) leader() *PhaseWorker {
	if len(g.members) == 0 {
		return nil
	}
	return g.members[0]
}

func (g *ConvergenceGroup) memberDone(ctx context.Context) {
	select {
	case g.doneCh <- struct{}{}:
	case <-ctx.Done():
	}
}

func (g *ConvergenceGroup) memberFailed(ctx context.Context, err error) {
	select {
	case g.failCh <- err:
	case <-ctx.Done():
	default:
		// A failure already claimed this group's one outcome.
	}
}

// monitor waits for every member to report its own local end-of-input,
// or for the first abnormal member failure, whichever comes first. It
// emits exactly one downstream end-of-input, or propagates one failure
// to the flow: once a failure is reported, the group does not attempt
// to re-issue end-of-input. After end-of-input has been emitted it keeps
// watching until flow teardown, so a member that rejects input arriving
// after its own end-of-input still has that failure reported.
func (g *ConvergenceGroup) monitor(ctx context.Context) {
	completed := 0
	for completed < len(g.members) {
		select {
		case <-g.doneCh:
			completed++
		case err := <-g.failCh:
			g.logger.Error("convergence group member failed before quorum", "phase", g.name, "error", err)
			g.flow.reportWorkerFailure(ctx, g.phaseID, err)
			return
		case <-ctx.Done():
			return
		}
	}
	g.emitEOI(ctx)
	select {
	case err := <-g.failCh:
		g.logger.Error("convergence group member failed after end-of-input", "phase", g.name, "error", err)
		g.flow.reportWorkerFailure(ctx, g.phaseID, err)
	case <-ctx.Done():
	}
}

// emitEOI fans end-of-input out to every member of the next phase, or
// reports the flow as done if this group is the tail. Guarded by
// eoiOnce: quorum can only be reached once per group.
func (g *ConvergenceGroup) emitEOI(ctx context.Context) {
	g.eoiOnce.Do(func() {
		if len(g.next) == 0 {
			g.flow.reportDone(ctx)
			return
		}
		for _, member := range g.next {
			member.signalEOI(ctx)
		}
	})
}

// broadcastEOI fans end-of-input into every member of THIS group. It is
// used when the flow's FinishInputs signals end-of-input into the head
// phase — the client acts as the virtual upstream of phase 0, so there
// is no preceding group to call emitEOI on its behalf.
func (g *ConvergenceGroup) broadcastEOI(ctx context.Context) {
	for _, member := range g.members {
		member.signalEOI(ctx)
	}
}
