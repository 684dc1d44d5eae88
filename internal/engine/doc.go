// Package engine runs a program through the iontrap pipeline:
//
//	schedule -> route -> verify
//
// Each stage is stamped with a logical clock seq and recorded under the
// run's flow token. A failure inside the pipeline (an *ir.Error from the
// scheduler, router or verifier) is a result, not an error: the run is
// returned with status failed and persisted like any other. Only
// infrastructure problems (store writes, cancellation) surface as errors.
//
// The engine is the only layer besides the CLI that logs. Core packages
// report through return values.
package engine
