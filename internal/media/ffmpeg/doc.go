// Package ffmpeg runs the external media tools and builds their argument
// lists.
//
// Runner is the single seam between the pipeline and child processes:
// ExecRunner starts the real binaries (optionally reniced), while tests
// substitute an in-memory fake. The builders in args.go produce the exact
// invocations for each pipeline step (segment split, encode passes, concat
// remux, frame counting) and ParseFrameCount reads the frame total back out of
// ffmpeg's progress output.
package ffmpeg
