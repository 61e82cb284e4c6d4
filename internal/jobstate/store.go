package jobstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"chunkenc/internal/fileutil"
	"chunkenc/internal/services"
)

// FileName is the progress record's name inside a workdir.
const FileName = "info.json"

// Record is the persisted progress of one job.
type Record struct {
	JobID                string    `json:"job_id,omitempty"`
	Input                string    `json:"input,omitempty"`
	LastStage            Stage     `json:"last_stage"`
	CompletedSegmentIDs  []string  `json:"completed_segment_ids"`
	ExpectedSegmentCount int       `json:"expected_segment_count,omitempty"`
	UpdatedAt            time.Time `json:"updated_at,omitzero"`
}

// Store loads and saves a single job's Record.
type Store interface {
	// Load returns the stored record and whether one existed.
	Load() (Record, bool, error)
	// Save durably replaces the stored record.
	Save(Record) error
}

// FileStore keeps the record as JSON at Path.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for workdir/info.json.
func NewFileStore(workdir string) *FileStore {
	return &FileStore{Path: filepath.Join(workdir, FileName)}
}

// Load reads the record. A missing file yields an empty record at
// StageNone; an unreadable or malformed file is an ErrFilesystem.
func (s *FileStore) Load() (Record, bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, services.Wrap(services.ErrFilesystem, "progress", "load", s.Path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, services.Wrap(services.ErrFilesystem, "progress", "decode", s.Path, err)
	}
	return rec, true, nil
}

// Save writes the record through a temp file and rename.
func (s *FileStore) Save(rec Record) error {
	if rec.CompletedSegmentIDs == nil {
		rec.CompletedSegmentIDs = []string{}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress record: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.Path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrFilesystem, "progress", "save", s.Path, err)
	}
	return nil
}

func cloneRecord(rec Record) Record {
	rec.CompletedSegmentIDs = slices.Clone(rec.CompletedSegmentIDs)
	return rec
}
