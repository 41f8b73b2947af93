// Package workerpool offers a small bounded-concurrency helper phase
// modules may use inside a single HandleInput/HandleSyncInputs call —
// for example to fan a batch out across several goroutines before
// returning its combined output. It is not used by the flow actor, the
// PhaseWorker, or the ConvergenceGroup: those are single-goroutine by
// design. This package exists purely as an opt-in
// building block for module authors: bounded concurrency over errgroup,
// with typed results collected back in submission order.
package workerpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vampirenirmal/flowcoord/internal/logging"
)

// Processor transforms one item of type T into a result of type R.
type Processor[T any, R any] func(context.Context, T) (R, error)

// Pool runs a Processor over a slice of items with at most Workers
// goroutines in flight at once.
type Pool[T any, R any] struct {
	Workers int
	Logger  *log.Logger
}

// New returns a Pool bounded to workers concurrent goroutines (clamped
// to 1). A nil logger discards log output.
func New[T any, R any](workers int, logger *log.Logger) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pool[T, R]{Workers: workers, Logger: logger}
}

// Run processes every item with at most p.Workers goroutines active at
// once, using errgroup so the first processor error cancels the
// remaining work and is returned to the caller. Results are placed at
// the same index as their source item, so the returned slice preserves
// submission order regardless of completion order.
func (p *Pool[T, R]) Run(ctx context.Context, items []T, process Processor[T, R]) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]R, len(items))
	sem := make(chan struct{}, p.Workers)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			result, err := process(gctx, item)
			if err != nil {
				return fmt.Errorf("workerpool: item %d: %w", i, err)
			}

			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.Logger.Error("worker pool run failed", "error", err, "item_count", len(items), "workers", p.Workers)
		return nil, err
	}
	return results, nil
}
