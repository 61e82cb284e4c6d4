// Package workflow drives one input file through the ordered pipeline
// stages: split, encode, remux, validate.
//
// The Manager derives the job id and workdir, takes the workdir lock, probes
// the source, and loads the progress record. Each stage whose completion is
// not recorded is executed through stageexec, which persists the new stage
// on success. Stages already recorded are skipped, but their postconditions
// are re-checked so a tampered workdir fails loudly instead of producing a
// broken output.
//
// Stages run strictly in order; only encode is internally parallel.
package workflow
