package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"filterbench/internal/domain"
)

// DiscoverImages lists the files in dir whose extension is one of exts
// (case-insensitive), sorted by path.
func DiscoverImages(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.ContainsFunc(exts, func(e string) bool { return strings.EqualFold(e, ext) }) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrNoImages, dir)
	}
	slices.Sort(paths)
	return paths, nil
}
