// Package output encodes comparison and evaluation results.
//
// JSON output is deterministic: object keys are sorted, floats are rounded
// to six decimal places and nil fields are omitted, so identical runs
// produce byte-identical files. YAML and TOML are encoded from the same
// struct tags.
//
// # Snapshot Comparison
//
// CompareSnapshots compares two JSON documents while ignoring fields that
// vary between otherwise identical runs (durations, timestamps, run IDs).
package output
