package flow

// PhaseSpec is one entry of the pipeline description: the ordered
// triple (module, behaviors, init_args). ConvergeN is only
// meaningful when Behaviors has BehaviorConverge set, and must be >= 1.
type PhaseSpec struct {
	// Name labels the phase for logs, manifests, and test assertions.
	// It is not the phase_id — phase_id is assigned positionally by
	// Start, head = 0.
	Name      string
	Module    Module
	Behaviors Behaviors
	ConvergeN int
	InitArgs  any
}

// Stage builds a PhaseSpec with the default stage behavior.
func Stage(name string, module Module, initArgs any) PhaseSpec {
	return PhaseSpec{Name: name, Module: module, InitArgs: initArgs}
}

// Accumulate builds a PhaseSpec with the accumulate behavior.
func Accumulate(name string, module Module, initArgs any) PhaseSpec {
	return PhaseSpec{Name: name, Module: module, Behaviors: Behaviors(0).With(BehaviorAccumulate), InitArgs: initArgs}
}

// Converge builds a PhaseSpec backed by n parallel worker instances
// sharing one leader. n must be >= 1.
func Converge(name string, n int, module Module, initArgs any) PhaseSpec {
	return PhaseSpec{Name: name, Module: module, Behaviors: Behaviors(0).With(BehaviorConverge), ConvergeN: n, InitArgs: initArgs}
}

// Transformer is the xformer applied to every result
// batch before it reaches the client. A nil Transformer means identity.
// Whether it runs once or many times per batch is
// observable: Flow.applyXformer calls it once per element when a tail
// worker's output is a []any sequence, and exactly once on the whole
// value when the output is any other single atomic value. Transformer
// itself only ever sees one element (or one atomic value) at a time —
// the batch-vs-element decision lives entirely in applyXformer.
type Transformer func(element any) any
