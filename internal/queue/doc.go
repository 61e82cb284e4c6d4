// Package queue persists the batch ledger in SQLite.
//
// Every file discovered by a batch run becomes one ledger item keyed by its
// source path. Items move pending -> encoding -> completed or failed, and
// failed items keep the error kind, stage, and failed segment ids so
// "chunkenc jobs" can show what went wrong without reading logs. The ledger
// is bookkeeping only; resumability of a single job lives in its workdir's
// progress record.
//
// Schema changes are goose migrations under migrations/, applied on Open.
package queue
