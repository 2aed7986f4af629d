package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ImagePattern matches the image files considered when looking for orphans.
// Extensions match in any case.
const ImagePattern = "**/*.{jpg,jpeg,webp,png,gif}"

// IsImage reports whether rel, relative to an images directory, matches
// ImagePattern.
func IsImage(rel string) bool {
	ok, _ := doublestar.Match(ImagePattern, strings.ToLower(filepath.ToSlash(rel)))
	return ok
}

// FindOrphans returns the images under dir, relative to it, that are not the
// slot file of any of keys. Misnamed files and files in subdirectories show
// up here since the prober never looks at them.
func FindOrphans(dir string, keys []string) ([]string, error) {
	expected := make(map[string]bool, len(keys)*SlotCount*2)
	for _, key := range keys {
		for i := 1; i <= SlotCount; i++ {
			expected[SlotFile(key, i, ExtJPEG)] = true
			expected[SlotFile(key, i, ExtWebP)] = true
		}
	}

	matches, err := doublestar.Glob(os.DirFS(dir), ImagePattern,
		doublestar.WithFilesOnly(), doublestar.WithCaseInsensitive())
	if err != nil {
		return nil, fmt.Errorf("glob images in %s: %w", dir, err)
	}

	var orphans []string
	for _, match := range matches {
		if !expected[match] {
			orphans = append(orphans, match)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
