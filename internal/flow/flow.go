package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vampirenirmal/flowcoord/internal/flowconfig"
	"github.com/vampirenirmal/flowcoord/internal/flowerr"
	"github.com/vampirenirmal/flowcoord/internal/logging"
)

// Flow is one running pipeline instance: the owner of its
// phases, its flow-wide timeout, its per-flow cache, and the relay of
// results and the one terminal message to its client. A Flow is a
// single goroutine reading its own mailbox; every exported method is a
// synchronous or fire-and-forget call into that mailbox, never a
// direct field touch.
type Flow struct {
	id      string
	client  chan<- ClientMessage
	cfg     flowconfig.Config
	xformer Transformer
	limiter *rate.Limiter
	logger  *log.Logger

	groups []*ConvergenceGroup
	head   *ConvergenceGroup

	cache    map[any]any
	mailbox  chan any
	headDist uint64

	cancel context.CancelFunc
}

// Start builds a flow's pipeline tail-to-head, waits for every phase's
// Init to succeed, and launches the flow actor. flowID is generated
// with uuid if empty. A construction failure tears down any
// already-started workers and returns a *flowerr.StartError.
func Start(ctx context.Context, client chan<- ClientMessage, flowID string, specs []PhaseSpec, xformer Transformer, cfg flowconfig.Config, logger *log.Logger) (*Flow, error) {
	if flowID == "" {
		flowID = uuid.NewString()
	}
	if logger == nil {
		logger = logging.New("flow")
	}

	flowCtx, cancel := context.WithCancel(ctx)

	f := &Flow{
		id:      flowID,
		client:  client,
		cfg:     cfg,
		xformer: xformer,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst),
		logger:  logger,
		cache:   make(map[any]any),
		mailbox: make(chan any, cfg.BufferSize),
		cancel:  cancel,
	}

	groups, err := f.buildPipeline(flowCtx, specs)
	if err != nil {
		cancel()
		return nil, err
	}
	f.groups = groups
	if len(groups) > 0 {
		f.head = groups[0]
	}

	for _, g := range groups {
		go g.monitor(flowCtx)
	}

	var timer *time.Timer
	if cfg.FlowTimeout > 0 {
		timer = time.AfterFunc(cfg.FlowTimeout, func() {
			select {
			case f.mailbox <- timeoutFiredMsg{}:
			case <-flowCtx.Done():
			}
		})
	}

	go f.run(flowCtx, timer)

	return f, nil
}

// buildPipeline constructs every ConvergenceGroup and PhaseWorker
// tail-to-head (so each group's next is known before the group upstream
// of it is built), spawns every worker, and waits for every Init to
// report success. All workers share the flow's own ctx for their
// lifetime; buildPipeline's own errgroup is only used to collect
// construction results, not to bound worker lifetime.
func (f *Flow) buildPipeline(ctx context.Context, specs []PhaseSpec) ([]*ConvergenceGroup, error) {
	if len(specs) == 0 {
		return nil, &flowerr.StartError{Phase: "", Cause: errors.New("pipeline must have at least one phase")}
	}

	groups := make([]*ConvergenceGroup, len(specs))
	var nextMembers []*PhaseWorker
	for i := len(specs) - 1; i >= 0; i-- {
		spec := specs[i]
		count := 1
		if spec.Behaviors.Has(BehaviorConverge) && spec.ConvergeN > 1 {
			count = spec.ConvergeN
		}
		glogger := logging.New(fmt.Sprintf("phase.%s", spec.Name))
		g := newConvergenceGroup(i, spec.Name, count, f, glogger)
		g.next = nextMembers
		for j := 0; j < count; j++ {
			w := newPhaseWorker(i, spec.Name, spec.Module, spec.Behaviors, spec.InitArgs, f, f.cfg.BufferSize, glogger, f.cfg.InputTimeout)
			w.group = g
			g.members = append(g.members, w)
		}
		groups[i] = g
		nextMembers = g.members
	}

	var allWorkers []*PhaseWorker
	for _, g := range groups {
		allWorkers = append(allWorkers, g.members...)
	}

	eg := new(errgroup.Group)
	for _, w := range allWorkers {
		w := w
		w.spawn(ctx)
		eg.Go(func() error {
			if err := <-w.initDone; err != nil {
				return &flowerr.StartError{Phase: w.name, Cause: err}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

// run is the flow actor's loop: the only goroutine that ever reads or
// writes f.cache, advances f.headDist, or decides flow termination.
func (f *Flow) run(ctx context.Context, timer *time.Timer) {
	defer f.teardown(timer)
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-f.mailbox:
			if f.handle(ctx, raw) {
				return
			}
		}
	}
}

// handle processes one mailbox message and reports whether the flow has
// reached a terminal state (done or error) and should stop.
func (f *Flow) handle(ctx context.Context, raw any) bool {
	switch m := raw.(type) {
	case addInputsMsg:
		f.handleAddInputs(ctx, m)
	case finishInputsMsg:
		if f.head != nil {
			f.head.broadcastEOI(ctx)
		}
	case cachePutMsg:
		f.cache[m.key] = m.value
		m.reply <- struct{}{}
	case cacheGetMsg:
		v, ok := f.cache[m.key]
		m.reply <- cacheGetResult{value: v, found: ok}
	case getPhasesMsg:
		m.reply <- f.phaseInfos()
	case resultMsg:
		f.sendClient(ClientMessage{
			Type:    MsgResults,
			FlowID:  f.id,
			PhaseID: m.phaseID,
			Result:  f.applyXformer(m.batch),
		})
	case doneMsg:
		f.sendClient(ClientMessage{Type: MsgDone, FlowID: f.id})
		return true
	case workerFailedMsg:
		f.sendClient(ClientMessage{
			Type:   MsgError,
			FlowID: f.id,
			Err:    &flowerr.PhaseError{FlowID: f.id, Phase: m.phaseID, Reason: m.err},
		})
		return true
	case timeoutFiredMsg:
		f.sendClient(ClientMessage{
			Type:   MsgError,
			FlowID: f.id,
			Err:    &flowerr.TimeoutError{FlowID: f.id},
		})
		return true
	}
	return false
}

// handleAddInputs assumes the rate limit has already been honored by
// the caller (see AddInputs), so a slow client never stalls the actor.
// The one wait it does make is handing the batch to the head phase's
// mailbox(es): while a head worker's mailbox is full the actor blocks
// there (or until ctx is done) and drains nothing else meanwhile.
func (f *Flow) handleAddInputs(ctx context.Context, m addInputsMsg) {
	if f.head == nil {
		m.reply <- errors.New("flow has no phases")
		return
	}
	if len(f.head.members) == 1 {
		f.head.members[0].deliverSync(ctx, m.batch)
	} else {
		for _, v := range m.batch {
			distribute(ctx, f.head.members, &f.headDist, v)
		}
	}
	m.reply <- nil
}

// applyXformer runs the configured Transformer over one result batch,
// per Design Notes: once per element when batch is a
// []any sequence, once on the whole value otherwise. A nil Transformer
// is identity.
func (f *Flow) applyXformer(batch any) any {
	if f.xformer == nil {
		return batch
	}
	if elems, ok := batch.([]any); ok {
		out := make([]any, len(elems))
		for i, el := range elems {
			out[i] = f.xformer(el)
		}
		return out
	}
	return f.xformer(batch)
}

func (f *Flow) sendClient(msg ClientMessage) {
	f.client <- msg
}

func (f *Flow) phaseInfos() []PhaseInfo {
	infos := make([]PhaseInfo, len(f.groups))
	for i, g := range f.groups {
		metrics := make([]WorkerMetrics, len(g.members))
		for j, w := range g.members {
			metrics[j] = w.metrics()
		}
		convergeN := 0
		if len(g.members) > 1 {
			convergeN = len(g.members)
		}
		infos[i] = PhaseInfo{ID: g.phaseID, Name: g.name, Behaviors: g.members[0].behaviors, ConvergeN: convergeN, Metrics: metrics}
	}
	return infos
}

func (f *Flow) teardown(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
	f.cancel()
}

// reportResult, reportWorkerFailure, and reportDone are called from
// worker and group goroutines outside the flow actor; each selects on
// ctx so a late report during teardown cannot block forever on a
// mailbox nobody is draining anymore.

func (f *Flow) reportResult(ctx context.Context, phaseID int, batch any) {
	select {
	case f.mailbox <- resultMsg{phaseID: phaseID, batch: batch}:
	case <-ctx.Done():
	}
}

func (f *Flow) reportWorkerFailure(ctx context.Context, phaseID int, err error) {
	select {
	case f.mailbox <- workerFailedMsg{phaseID: phaseID, err: err}:
	case <-ctx.Done():
	}
}

func (f *Flow) reportDone(ctx context.Context) {
	select {
	case f.mailbox <- doneMsg{}:
	case <-ctx.Done():
	}
}

// ID returns the flow's identifier, client-supplied or generated.
func (f *Flow) ID() string { return f.id }

// AddInputs waits for the flow's rate limiter to admit batch, then
// delivers it to the head phase via its synchronous input path and
// blocks until the head has accepted delivery, all bounded by the
// flow's own flow_timeout. The rate-limit wait runs here, on the
// caller's own goroutine — never inside the flow actor — so a client
// pushing faster than RateLimit only ever blocks itself, not the
// actor's mailbox loop.
func (f *Flow) AddInputs(ctx context.Context, batch []any) error {
	deadline := time.NewTimer(f.cfg.FlowTimeout)
	defer deadline.Stop()

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	waitErr := make(chan error, 1)
	go func() { waitErr <- f.limiter.WaitN(waitCtx, len(batch)) }()

	select {
	case err := <-waitErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline.C:
		return &flowerr.TimeoutError{FlowID: f.id}
	}

	reply := make(chan error, 1)
	select {
	case f.mailbox <- addInputsMsg{batch: batch, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline.C:
		return &flowerr.TimeoutError{FlowID: f.id}
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline.C:
		return &flowerr.TimeoutError{FlowID: f.id}
	}
}

// FinishInputs signals end-of-input to the head phase. It is
// fire-and-forget: it does not wait for the flow to drain.
func (f *Flow) FinishInputs(ctx context.Context) {
	select {
	case f.mailbox <- finishInputsMsg{}:
	case <-ctx.Done():
	}
}

// CachePut writes one key/value pair into the flow's per-flow cache.
// Overwrites an existing key.
func (f *Flow) CachePut(ctx context.Context, key, value any) error {
	reply := make(chan struct{}, 1)
	select {
	case f.mailbox <- cachePutMsg{key: key, value: value, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CacheGet reads one key from the flow's per-flow cache. found is false
// if the key was never written.
func (f *Flow) CacheGet(ctx context.Context, key any) (value any, found bool, err error) {
	reply := make(chan cacheGetResult, 1)
	select {
	case f.mailbox <- cacheGetMsg{key: key, reply: reply}:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.value, res.found, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// GetPhases returns a snapshot of every phase handle and its worker
// metrics. Reserved for tests.
func (f *Flow) GetPhases(ctx context.Context) ([]PhaseInfo, error) {
	reply := make(chan []PhaseInfo, 1)
	select {
	case f.mailbox <- getPhasesMsg{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case infos := <-reply:
		return infos, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
