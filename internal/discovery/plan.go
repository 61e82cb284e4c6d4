package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"chunkenc/internal/config"
)

// Candidate is one source selected for encoding.
type Candidate struct {
	Rel        string // relative to the input root
	Source     string
	Output     string
	AccessedAt time.Time
}

// Plan is the ordered work of a batch run.
type Plan struct {
	Found      int // preferred sources found
	Existing   int // dropped because the output already exists
	Candidates []Candidate
}

// Select keeps, for every relative path without extension, the file whose
// extension comes earliest in extensions. Files with other extensions are
// ignored. The result is sorted by relative path.
func Select(rels []string, extensions []string) []string {
	rank := make(map[string]int, len(extensions))
	for i, ext := range extensions {
		rank[strings.ToLower(ext)] = i
	}

	chosen := make(map[string]string)
	for _, rel := range rels {
		ext := strings.ToLower(filepath.Ext(rel))
		r, ok := rank[ext]
		if !ok {
			continue
		}
		stem := strings.TrimSuffix(rel, filepath.Ext(rel))
		if current, seen := chosen[stem]; seen && rank[strings.ToLower(filepath.Ext(current))] <= r {
			continue
		}
		chosen[stem] = rel
	}

	out := make([]string, 0, len(chosen))
	for _, rel := range chosen {
		out = append(out, rel)
	}
	slices.Sort(out)
	return out
}

// OutputPath maps a relative source path to its output under outDir.
func OutputPath(outDir, rel, ext string) string {
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outDir, stem+ext)
}

// Build scans inDir and returns the sources that still need encoding,
// most recently accessed first.
func Build(inDir, outDir string, batch config.Batch) (Plan, error) {
	inDir, err := filepath.Abs(inDir)
	if err != nil {
		return Plan{}, fmt.Errorf("resolve input directory: %w", err)
	}
	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return Plan{}, fmt.Errorf("resolve output directory: %w", err)
	}
	if info, err := os.Stat(inDir); err != nil {
		return Plan{}, fmt.Errorf("input directory: %w", err)
	} else if !info.IsDir() {
		return Plan{}, fmt.Errorf("input directory: %s is not a directory", inDir)
	}

	var rels []string
	for path, err := range Walk(inDir, batch.SkipDirs) {
		if err != nil {
			return Plan{}, fmt.Errorf("scan %s: %w", path, err)
		}
		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return Plan{}, fmt.Errorf("relative path for %s: %w", path, err)
		}
		rels = append(rels, rel)
	}

	selected := Select(rels, batch.Extensions)
	plan := Plan{Found: len(selected)}
	for _, rel := range selected {
		output := OutputPath(outDir, rel, batch.OutputExtension)
		if _, err := os.Stat(output); err == nil {
			plan.Existing++
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Plan{}, fmt.Errorf("check output %s: %w", output, err)
		}
		source := filepath.Join(inDir, rel)
		accessed, err := accessTime(source)
		if err != nil {
			return Plan{}, fmt.Errorf("stat %s: %w", source, err)
		}
		plan.Candidates = append(plan.Candidates, Candidate{
			Rel:        rel,
			Source:     source,
			Output:     output,
			AccessedAt: accessed,
		})
	}

	slices.SortStableFunc(plan.Candidates, func(a, b Candidate) int {
		return b.AccessedAt.Compare(a.AccessedAt)
	})
	return plan, nil
}
