package job

import (
	"os"
	"path/filepath"

	"chunkenc/internal/services"
)

// Layout names every path inside a job's workdir.
type Layout struct {
	Root      string
	Chunks    string // split source segments
	Encoded   string // finished encoded segments
	EncodeTmp string // per-encode scratch directories
	Record    string
	Manifest  string // concat list, inside Encoded
	Joined    string // remux output before publish
	LockFile  string
}

// NewLayout returns the layout for job id under scratchRoot.
func NewLayout(scratchRoot, id string) Layout {
	root := filepath.Join(scratchRoot, id)
	encoded := filepath.Join(root, "chunks-encoded")
	return Layout{
		Root:      root,
		Chunks:    filepath.Join(root, "chunks"),
		Encoded:   encoded,
		EncodeTmp: filepath.Join(root, "encode-tmp"),
		Record:    filepath.Join(root, "info.json"),
		Manifest:  filepath.Join(encoded, "concat.txt"),
		Joined:    filepath.Join(root, "output.mkv"),
		LockFile:  filepath.Join(root, ".lock"),
	}
}

// Ensure creates the workdir and its subdirectories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Root, l.Chunks, l.Encoded, l.EncodeTmp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrFilesystem, "setup", "create workdir", dir, err)
		}
	}
	return nil
}

// EncodedPath returns where segment id's encoded file lives.
func (l Layout) EncodedPath(id string) string {
	return filepath.Join(l.Encoded, id)
}
