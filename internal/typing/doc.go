// Package typing turns per-locus allele hits into sequence-type calls.
// It never imports app, cli, output, writers, store or metrics; keep it
// domain-only and free of I/O.
//
// The flow is BuildCandidates → Accumulate → Rank → Decide; Resolve runs
// all four and is safe to call concurrently with shared references.
package typing
