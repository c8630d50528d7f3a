// Package build provides the incremental template pipeline.
//
// A cycle runs detect → graph → affected → compile in that order: the tree
// is fingerprinted against the recorded state, the dependency graph is
// rebuilt from the scanned documents, the changed paths are expanded over
// reverse edges into the set of compilable pages they affect, and each of
// those pages is rendered, formatted and written. Outputs of deleted pages
// are removed. Failures of individual documents are collected in the
// CycleReport and never stop the batch.
//
// All execution paths (build command, watch loop, periodic rescan) route
// through Pipeline.RunCycle, which never runs two cycles at once.
package build
