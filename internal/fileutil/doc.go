// Package fileutil holds the durable filesystem primitives the pipeline relies
// on: atomic writes for persisted progress, verified copies, and moves that
// fall back to copy-then-rename across filesystems.
package fileutil
