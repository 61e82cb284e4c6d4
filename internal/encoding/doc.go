// Package encoding runs the two-pass transcode of split segments.
//
// Pool fans pending segments out to a fixed number of workers. Each worker
// encodes one segment in its own scratch directory under encode-tmp, so
// concurrent pass logs never collide, and moves the finished file into
// chunks-encoded with a rename. Results flow back to a single aggregator
// which records completions through jobstate.Tracker; the record is
// persisted after every completed segment.
//
// Segments already recorded as complete are skipped without invoking the
// encoder, so re-running the stage after a crash or a partial failure only
// retries the missing work.
package encoding
