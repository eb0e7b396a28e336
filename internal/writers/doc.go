// Package writers turns typing reports into serialized outputs.
//
// Design:
//   - Writers own all presentation knowledge (per-scheme TSV blocks, markers, JSON/JSONL).
//   - typing stays domain-only; app stays orchestration-only.
//   - JSON/JSONL go through pkg/api (v1) for a stable wire format.
package writers
