package services

import (
	"fmt"
	"strings"
)

// SegmentFailure records why a single segment could not be encoded.
type SegmentFailure struct {
	SegmentID string
	Err       error
}

// SegmentFailures is returned by the encode stage when one or more segments
// fail. It matches ErrSegmentEncode and unwraps to every underlying cause.
type SegmentFailures struct {
	Total    int
	Failures []SegmentFailure
}

func (e *SegmentFailures) Error() string {
	if e == nil || len(e.Failures) == 0 {
		return ErrSegmentEncode.Error()
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.SegmentID, f.Err))
	}
	return fmt.Sprintf("%s: %d of %d segments failed: %s",
		ErrSegmentEncode, len(e.Failures), e.Total, strings.Join(parts, "; "))
}

// Is reports ErrSegmentEncode as a match.
func (e *SegmentFailures) Is(target error) bool {
	return target == ErrSegmentEncode
}

func (e *SegmentFailures) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// FailedIDs lists the failed segment ids in the order they were recorded.
func (e *SegmentFailures) FailedIDs() []string {
	if e == nil {
		return nil
	}
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.SegmentID)
	}
	return ids
}
