// Package flowmodules holds a handful of small, dependency-free
// flow.Module implementations used by cmd/flowctl's built-in pipelines
// and the flow package's own tests. None of them
// model a real domain; they exist to exercise specific corners of the
// Module contract (atomic vs. sequence outputs, the accumulate
// behavior, the sync-inputs fast path, abnormal termination) without
// pulling test fixtures into the flow package itself.
package flowmodules
