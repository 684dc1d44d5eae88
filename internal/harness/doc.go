// Package harness runs conformance scenarios against the verifier and the
// full schedule/route/verify pipeline.
//
// A scenario is a YAML file in one of two modes:
//
//   - timeline: explicit positions and schedule, checked with verifier.Verify
//   - program: a gate list, run through engine.Run on an in-memory store
//
// Both modes end in an expect clause naming the outcome status and, for
// failures, the error code, tick and ions. Timeline scenarios can also be
// compared against golden reports with RunWithGolden:
//
//	go test ./internal/harness -update
//
// regenerates testdata/golden.
//
// Every scenario runs with a DeterministicClock and a FixedFlowGenerator, so
// seqs, flow tokens and run IDs are the same on every run.
package harness
