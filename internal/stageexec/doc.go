// Package stageexec runs a single pipeline stage with the shared logging,
// failure classification, and progress-record transition.
package stageexec
