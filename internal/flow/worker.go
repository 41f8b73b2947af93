package flow

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vampirenirmal/flowcoord/internal/flowerr"
)

// inboxState tracks one worker's local view of its own end-of-input
// lifecycle: open while inputs may still arrive,
// doneLocal while HandleInputsDone is running, doneAnnounced once the
// worker has told its group it is finished. The worker's goroutine
// keeps running past doneAnnounced — it does not exit — so that a
// misbehaving upstream delivering input after EOI gets a reported
// PhaseError instead of a blocked or silently dropped send.
type inboxState int32

const (
	inboxOpen inboxState = iota
	inboxDoneLocal
	inboxDoneAnnounced
)

// mailbox message shapes. A worker's mailbox is a single chan any; the
// concrete type sent distinguishes ordinary input from a batched sync
// delivery from end-of-input.
type inputMsg struct{ v any }
type syncInputMsg struct{ batch []any }
type eoiMsg struct{}

// PhaseWorker is one running instance of a phase module.
// An ordinary stage or accumulate phase is backed by exactly one
// PhaseWorker; a converging phase is backed by N, all members of the
// same ConvergenceGroup.
type PhaseWorker struct {
	id        int
	name      string
	module    Module
	behaviors Behaviors
	initArgs  any

	group *ConvergenceGroup
	flow  *Flow

	mailbox  chan any
	initDone chan error
	logger   *log.Logger

	// state is only ever touched from within run/loop — single-goroutine
	// ownership, no lock needed.
	state    any
	inbox    inboxState
	dist     uint64
	retryCfg RetryConfig

	// inputTimeout bounds one HandleInput/HandleSyncInputs attempt; zero
	// disables it. See callWithTimeout.
	inputTimeout time.Duration

	processed uint64
	forwarded uint64
	failed    uint64
}

func newPhaseWorker(id int, name string, module Module, behaviors Behaviors, initArgs any, fl *Flow, bufferSize int, logger *log.Logger, inputTimeout time.Duration) *PhaseWorker {
	return &PhaseWorker{
		id:           id,
		name:         name,
		module:       module,
		behaviors:    behaviors,
		initArgs:     initArgs,
		flow:         fl,
		mailbox:      make(chan any, bufferSize),
		initDone:     make(chan error, 1),
		logger:       logger,
		retryCfg:     DefaultRetryConfig,
		inputTimeout: inputTimeout,
	}
}

func (w *PhaseWorker) spawn(ctx context.Context) { go w.run(ctx) }

func (w *PhaseWorker) run(ctx context.Context) {
	state, err := w.safeInit(ctx)
	w.initDone <- err
	if err != nil {
		w.logger.Error("phase init failed", "phase", w.name, "id", w.id, "error", err)
		return
	}
	w.state = state
	w.loop(ctx)
}

func (w *PhaseWorker) safeInit(ctx context.Context) (state any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("phase %s init panicked: %v", w.name, r)
		}
	}()
	return w.module.Init(ctx, w.initArgs)
}

func (w *PhaseWorker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// Flow teardown. by design this exit is
			// never reported to the flow: the flow already initiated it.
			return
		case raw := <-w.mailbox:
			w.handle(ctx, raw)
		}
	}
}

func (w *PhaseWorker) handle(ctx context.Context, raw any) {
	switch m := raw.(type) {
	case inputMsg:
		w.handleInput(ctx, m.v)
	case syncInputMsg:
		w.handleSync(ctx, m.batch)
	case eoiMsg:
		w.handleEOI(ctx)
	}
}

func (w *PhaseWorker) handleInput(ctx context.Context, v any) {
	if w.inbox != inboxOpen {
		w.fail(ctx, flowerr.ErrInboxClosed)
		return
	}
	state := w.state
	out, next, err := w.callWithRetry(ctx, w.retryCfg, func() (any, any, error) {
		return w.module.HandleInput(ctx, v, state)
	})
	if err != nil {
		w.fail(ctx, err)
		return
	}
	w.state = next
	atomic.AddUint64(&w.processed, 1)
	w.emit(ctx, out)
}

func (w *PhaseWorker) handleSync(ctx context.Context, batch []any) {
	if w.inbox != inboxOpen {
		w.fail(ctx, flowerr.ErrInboxClosed)
		return
	}
	if sh, ok := w.module.(SyncInputsHandler); ok {
		state := w.state
		out, next, err := w.callWithRetry(ctx, w.retryCfg, func() (any, any, error) {
			return sh.HandleSyncInputs(ctx, batch, state)
		})
		if err != nil {
			w.fail(ctx, err)
			return
		}
		w.state = next
		atomic.AddUint64(&w.processed, uint64(len(batch)))
		w.emit(ctx, out)
		return
	}
	for _, v := range batch {
		if w.inbox != inboxOpen {
			w.fail(ctx, flowerr.ErrInboxClosed)
			return
		}
		w.handleInput(ctx, v)
	}
}

func (w *PhaseWorker) handleEOI(ctx context.Context) {
	if w.inbox != inboxOpen {
		return
	}
	w.inbox = inboxDoneLocal
	out, _, err := w.call(func() (any, any, error) {
		return w.module.HandleInputsDone(ctx, w.state)
	})
	if err != nil {
		w.fail(ctx, err)
		return
	}
	w.emit(ctx, out)
	w.inbox = inboxDoneAnnounced
	w.group.memberDone(ctx)
}

func (w *PhaseWorker) call(fn func() (any, any, error)) (out any, next any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("phase %s callback panicked: %v", w.name, r)
		}
	}()
	return fn()
}

func (w *PhaseWorker) fail(ctx context.Context, err error) {
	atomic.AddUint64(&w.failed, 1)
	w.logger.Error("phase worker failed", "phase", w.name, "id", w.id, "error", err)
	w.group.memberFailed(ctx, err)
}

// emit routes one callback's output downstream: nothing for a nil
// output, one distribute call per element for a []any sequence, or a
// single distribute call for any other atomic value. A tail worker
// (empty next) reports straight to the flow instead.
func (w *PhaseWorker) emit(ctx context.Context, out any) {
	if out == nil {
		return
	}
	next := w.group.next
	if len(next) == 0 {
		atomic.AddUint64(&w.forwarded, 1)
		w.flow.reportResult(ctx, w.id, out)
		return
	}
	if elems, ok := out.([]any); ok {
		for _, el := range elems {
			w.forwardOne(ctx, next, el)
		}
		return
	}
	w.forwardOne(ctx, next, out)
}

func (w *PhaseWorker) forwardOne(ctx context.Context, next []*PhaseWorker, v any) {
	atomic.AddUint64(&w.forwarded, 1)
	distribute(ctx, next, &w.dist, v)
}

// distribute round-robins v to exactly one member of members, using dist
// as that caller's own monotonic counter.
// Distribution is stable within one caller; it is intentionally not
// coordinated across the distinct workers of a converging phase, so no
// cross-worker order is implied.
func distribute(ctx context.Context, members []*PhaseWorker, dist *uint64, v any) {
	idx := (atomic.AddUint64(dist, 1) - 1) % uint64(len(members))
	members[idx].deliver(ctx, v)
}

func (w *PhaseWorker) deliver(ctx context.Context, v any) {
	select {
	case w.mailbox <- inputMsg{v}:
	case <-ctx.Done():
	}
}

func (w *PhaseWorker) deliverSync(ctx context.Context, batch []any) {
	select {
	case w.mailbox <- syncInputMsg{batch}:
	case <-ctx.Done():
	}
}

func (w *PhaseWorker) signalEOI(ctx context.Context) {
	select {
	case w.mailbox <- eoiMsg{}:
	case <-ctx.Done():
	}
}

func (w *PhaseWorker) metrics() WorkerMetrics {
	return WorkerMetrics{
		Processed: atomic.LoadUint64(&w.processed),
		Forwarded: atomic.LoadUint64(&w.forwarded),
		Failed:    atomic.LoadUint64(&w.failed),
	}
}
