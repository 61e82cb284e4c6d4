package jobstate

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Tracker owns a job's record for the duration of a run. All methods are
// safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	store     Store
	rec       Record
	completed map[string]struct{}
	now       func() time.Time
}

// NewTracker wraps rec, persisting changes through store.
func NewTracker(store Store, rec Record) *Tracker {
	completed := make(map[string]struct{}, len(rec.CompletedSegmentIDs))
	for _, id := range rec.CompletedSegmentIDs {
		completed[id] = struct{}{}
	}
	return &Tracker{store: store, rec: cloneRecord(rec), completed: completed, now: time.Now}
}

// Open loads the record from store, starting fresh when none exists.
func Open(store Store, jobID, input string) (*Tracker, bool, error) {
	rec, exists, err := store.Load()
	if err != nil {
		return nil, false, err
	}
	if rec.JobID == "" {
		rec.JobID = jobID
	}
	if rec.Input == "" {
		rec.Input = input
	}
	return NewTracker(store, rec), exists, nil
}

// Stage returns the last completed stage.
func (t *Tracker) Stage() Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.LastStage
}

// IsComplete reports whether segment id finished encoding.
func (t *Tracker) IsComplete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.completed[id]
	return ok
}

// Completed returns the completed segment ids, sorted.
func (t *Tracker) Completed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Sorted(maps.Keys(t.completed))
}

// Snapshot returns a copy of the current record.
func (t *Tracker) Snapshot() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := cloneRecord(t.rec)
	rec.CompletedSegmentIDs = slices.Sorted(maps.Keys(t.completed))
	return rec
}

// MarkSegment records id as completed and persists the record before
// returning. Marking an already completed id is a no-op. If the save fails
// the id is not considered complete.
func (t *Tracker) MarkSegment(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.completed[id]; ok {
		return nil
	}
	t.completed[id] = struct{}{}
	if err := t.persistLocked(); err != nil {
		delete(t.completed, id)
		return err
	}
	return nil
}

// SetExpectedSegments records the segment count produced by the split. It
// is persisted with the next save.
func (t *Tracker) SetExpectedSegments(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rec.ExpectedSegmentCount = n
}

// ResetSegments clears the completed set in memory. Used when a split is
// redone so stale completions cannot leak into the new segment set.
func (t *Tracker) ResetSegments() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.completed)
}

// Advance moves the record to stage and persists it. Re-advancing to the
// current stage is a no-op; moving backwards is an error.
func (t *Tracker) Advance(stage Stage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !stage.Valid() {
		return fmt.Errorf("advance: invalid stage %d", int(stage))
	}
	if stage < t.rec.LastStage {
		return fmt.Errorf("advance: stage %s is behind recorded stage %s", stage, t.rec.LastStage)
	}
	if stage == t.rec.LastStage {
		return nil
	}
	prev := t.rec.LastStage
	t.rec.LastStage = stage
	if err := t.persistLocked(); err != nil {
		t.rec.LastStage = prev
		return err
	}
	return nil
}

func (t *Tracker) persistLocked() error {
	rec := cloneRecord(t.rec)
	rec.CompletedSegmentIDs = slices.Sorted(maps.Keys(t.completed))
	rec.UpdatedAt = t.now().UTC()
	if err := t.store.Save(rec); err != nil {
		return err
	}
	t.rec.UpdatedAt = rec.UpdatedAt
	return nil
}
