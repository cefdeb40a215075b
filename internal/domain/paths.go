package domain

import (
	"path/filepath"
	"strings"
)

// IsUnderFolder reports whether the directory containing filePath is folder
// or lies below it. The comparison ignores case and only matches whole path
// segments, so /src/foo2/a.cs is not under /src/foo.
func IsUnderFolder(filePath, folder string) bool {
	if strings.TrimSpace(filePath) == "" || strings.TrimSpace(folder) == "" {
		return false
	}
	dir := strings.ToLower(filepath.Dir(filepath.Clean(filePath)))
	root := strings.ToLower(filepath.Clean(folder))
	if dir == root {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(dir, root)
}

// IsPartOfAnyProject reports whether filePath is under at least one of the directories.
func IsPartOfAnyProject(filePath string, projectDirs []string) bool {
	for _, dir := range projectDirs {
		if IsUnderFolder(filePath, dir) {
			return true
		}
	}
	return false
}

// CommonRoot returns the longest segment-wise prefix shared by all paths.
// Segments are compared case-sensitively. It returns "" for no input or when
// the paths share nothing.
func CommonRoot(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	sep := string(filepath.Separator)

	split := make([][]string, len(paths))
	shortest := 0
	for i, p := range paths {
		split[i] = strings.Split(filepath.Clean(p), sep)
		if len(split[i]) < len(split[shortest]) {
			shortest = i
		}
	}

	var common []string
	for i, seg := range split[shortest] {
		for _, parts := range split {
			if parts[i] != seg {
				return joinSegments(common, sep)
			}
		}
		common = append(common, seg)
	}
	return joinSegments(common, sep)
}

func joinSegments(segs []string, sep string) string {
	if len(segs) == 0 {
		return ""
	}
	// An absolute path splits into a leading empty segment.
	if len(segs) == 1 && segs[0] == "" {
		return sep
	}
	return strings.Join(segs, sep)
}
