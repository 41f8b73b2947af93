package flowmodules

import (
	"context"
	"fmt"
	"time"

	"github.com/vampirenirmal/flowcoord/internal/flow"
	"github.com/vampirenirmal/flowcoord/internal/flowcache"
)

// Memoize wraps a plain func(any) (any, error) the same way MapFunc
// does, but backs it with a flowcache.MemoryCache so a repeated input
// is served from cache instead of recomputed. One cache instance backs
// every member of a converging phase, since ModuleRegistry.New builds
// the Module value once per phase and shares it across members (see
// ModuleFactory's doc comment) — flowcache.MemoryCache is safe for
// that concurrent access on its own.
type Memoize struct {
	fn    func(any) (any, error)
	cache *flowcache.MemoryCache[any, any]
}

// NewMemoize builds a Memoize module around fn, caching results for ttl
// (zero means cached entries never expire).
func NewMemoize(fn func(any) (any, error), ttl time.Duration) *Memoize {
	return &Memoize{fn: fn, cache: flowcache.New[any, any](ttl, 0)}
}

func (m *Memoize) Init(ctx context.Context, args any) (any, error) { return nil, nil }

func (m *Memoize) HandleInput(ctx context.Context, input any, state any) (any, any, error) {
	if out, ok := m.cache.Get(input); ok {
		return out, state, nil
	}
	out, err := m.fn(input)
	if err != nil {
		return nil, state, err
	}
	m.cache.Set(input, out)
	return out, state, nil
}

func (m *Memoize) HandleInputsDone(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

func (m *Memoize) HandleTimeout(ctx context.Context, state any) (any, any, error) {
	return nil, state, nil
}

// Stats exposes the underlying cache's hit/miss/size counters, mostly
// for tests and GetPhases-style introspection.
func (m *Memoize) Stats() (hits, misses uint64, size int) {
	return m.cache.Stats()
}

var _ flow.Module = (*Memoize)(nil)

// MemoizeDouble doubles an int input, caching each distinct input's
// result — a demo module exercising flowcache from inside the flow
// coordinator's own module contract rather than as an unused
// standalone package.
func MemoizeDouble() *Memoize {
	return NewMemoize(func(v any) (any, error) {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("memoize_double: expected int, got %T", v)
		}
		return n * 2, nil
	}, 5*time.Minute)
}
