// Package services defines shared utilities consumed by the pipeline stages.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     a stable kind (probe_error, segment_encode_failure, ...) that the CLI
//     and batch ledger can report.
//   - SegmentFailures, the aggregate error of the encode stage.
package services
