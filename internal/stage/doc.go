// Package stage defines the contract between the workflow sequencer and the
// pipeline phases (split, encode, remux, validate).
package stage
