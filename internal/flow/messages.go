package flow

// Messages delivered to a Flow's own mailbox. Each request carrying a
// reply channel follows the synchronous-call convention used throughout
// this package: sender owns a buffered reply chan of size 1, the flow
// actor replies exactly once.

type addInputsMsg struct {
	batch []any
	reply chan error
}

type finishInputsMsg struct{}

type cachePutMsg struct {
	key, value any
	reply      chan struct{}
}

type cacheGetResult struct {
	value any
	found bool
}

type cacheGetMsg struct {
	key   any
	reply chan cacheGetResult
}

type getPhasesMsg struct {
	reply chan []PhaseInfo
}

// resultMsg is pushed by a tail PhaseWorker's emit, not by a client API
// call — it has no reply channel.
type resultMsg struct {
	phaseID int
	batch   any
}

// doneMsg is pushed once, by the tail ConvergenceGroup's emitEOI, when
// every phase has drained.
type doneMsg struct{}

// workerFailedMsg is pushed by a ConvergenceGroup's monitor when a
// member reports an abnormal exit.
type workerFailedMsg struct {
	phaseID int
	err     error
}

// timeoutFiredMsg is pushed by the flow_timeout timer.
type timeoutFiredMsg struct{}
