// Package main hosts the chunkenc CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// work to the internal packages: encode runs one resumable pipeline, batch
// walks a directory and records each run in the ledger, and the remaining
// commands inspect or tidy persisted state.
package main
