// Package validation proves the joined output is complete before it is
// published.
//
// The source and the joined file are both decoded to count video frames; the
// counts must be identical. Only then is the joined file moved to the
// requested output path. A mismatch leaves the joined file in the workdir for
// inspection and publishes nothing.
package validation
