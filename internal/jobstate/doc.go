// Package jobstate persists per-job progress so an interrupted encode can
// resume.
//
// A Record holds the last completed Stage and the ids of segments whose
// encode finished. FileStore keeps it as info.json in the job's workdir and
// replaces it atomically on every save. Tracker is the only writer during a
// run: it serializes every read-modify-persist of the completed set behind
// one mutex and never lets the stage move backwards.
package jobstate
