package discovery

import (
	"iter"
	"os"
	"path/filepath"
	"slices"
)

// Walk yields the path of every regular file under root, depth first in
// directory order. Directories whose base name is in skipDirs are pruned.
// Errors reading a directory are yielded and the walk continues with the
// next one. Each range over the result starts a fresh walk.
func Walk(root string, skipDirs []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stack := []string{root}
		for len(stack) > 0 {
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			entries, err := os.ReadDir(dir)
			if err != nil {
				if !yield(dir, err) {
					return
				}
				continue
			}

			var subdirs []string
			for _, entry := range entries {
				path := filepath.Join(dir, entry.Name())
				switch {
				case entry.IsDir():
					if !slices.Contains(skipDirs, entry.Name()) {
						subdirs = append(subdirs, path)
					}
				case entry.Type().IsRegular():
					if !yield(path, nil) {
						return
					}
				}
			}
			// Push in reverse so the first subdirectory is visited first.
			for i := len(subdirs) - 1; i >= 0; i-- {
				stack = append(stack, subdirs[i])
			}
		}
	}
}
