package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure markers. Every pipeline error wraps exactly one of these so callers
// can classify with errors.Is.
var (
	ErrProbe              = errors.New("probe error")
	ErrMissingStream      = errors.New("missing video stream")
	ErrSegmentCount       = errors.New("segment count mismatch")
	ErrSegmentEncode      = errors.New("segment encode failure")
	ErrRemux              = errors.New("remux error")
	ErrValidationMismatch = errors.New("frame count mismatch")
	ErrFilesystem         = errors.New("filesystem error")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

var kinds = []struct {
	marker error
	kind   string
}{
	{ErrProbe, "probe_error"},
	{ErrMissingStream, "missing_stream"},
	{ErrSegmentCount, "segment_count_mismatch"},
	{ErrSegmentEncode, "segment_encode_failure"},
	{ErrRemux, "remux_error"},
	{ErrValidationMismatch, "validation_mismatch"},
	{ErrFilesystem, "filesystem_error"},
	{ErrConfiguration, "configuration_error"},
}

// Kind returns the stable taxonomy name for err, "cancelled" for context
// cancellation, or "unknown" when no marker matches.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "unknown"
}

// ErrorDetails is the operator-facing summary of a pipeline failure.
type ErrorDetails struct {
	Kind           string
	Message        string
	FailedSegments []string
}

// Details summarizes err for CLI output and ledger persistence.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: Kind(err), Message: err.Error()}
	var failures *SegmentFailures
	if errors.As(err, &failures) {
		details.FailedSegments = failures.FailedIDs()
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
