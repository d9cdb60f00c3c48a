package files

import (
	"math"
	"os"
	"path/filepath"
	"sort"
)

// FileLimit is the maximum number of files MOSS accepts in a single
// submission.
const FileLimit = 300

// Collect returns the files under root/<checkout>/[assignmentPath/]pattern.
// The pattern may contain slashes ("*/*.c" matches one directory deep).
func Collect(root, pattern, assignmentPath string) ([]string, error) {
	var glob string
	if assignmentPath != "" {
		glob = filepath.Join(root, "*", assignmentPath, pattern)
	} else {
		glob = filepath.Join(root, "*", pattern)
	}

	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}
	sort.Strings(files)
	return files, nil
}

// FilterNonEmpty drops zero-length files
func FilterNonEmpty(paths []string) []string {
	var kept []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			continue
		}
		kept = append(kept, path)
	}
	return kept
}

// FilterValid drops empty files and, for C-family languages, files
// that contain nothing but comments.
func FilterValid(paths []string, lang string) []string {
	var valid []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			continue
		}
		if !IsValid(path, lang) {
			continue
		}
		valid = append(valid, path)
	}
	return valid
}

// Batch splits prev into parts so that len(current)+len(part) never
// exceeds limit. Every submission carries all current-quarter files
// plus one part of the previous-quarter files. Returns nil when the
// current files alone already exceed the limit.
func Batch(current, prev []string, limit int) [][]string {
	remaining := limit - len(current)
	if remaining <= 0 {
		return nil
	}
	if len(prev) == 0 {
		return [][]string{nil}
	}

	parts := int(math.Ceil(float64(len(prev)) / float64(remaining)))
	batches := make([][]string, 0, parts)
	for i := 0; i < parts; i++ {
		start := i * remaining
		end := (i + 1) * remaining
		if end > len(prev) {
			end = len(prev)
		}
		batches = append(batches, prev[start:end])
	}
	return batches
}
