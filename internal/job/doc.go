// Package job identifies an encode job and owns its scratch directory.
//
// A job's ID is derived from the input path alone, so rerunning the same
// input always lands in the same workdir and can resume. Layout names every
// path inside the workdir, and Lock keeps two processes from working on the
// same job at once.
package job
