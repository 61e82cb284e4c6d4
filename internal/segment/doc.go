// Package segment splits a source video into fixed-duration pieces and
// enumerates them.
//
// The split is a single stream copy, so it is fast and lossless. The number
// of pieces is fully determined by the probed duration: ExpectedCount is
// ceil(duration / segment length), and any other count on disk is treated as
// a fatal ErrSegmentCount rather than repaired.
package segment
