package domain

import "strings"

// UnchangedFilesName is the list of files unchanged since the pull request base branch.
const UnchangedFilesName = "UnchangedFiles.txt"

// CacheEntry is one record of the server's prior-analysis snapshot. Key is a
// path relative to the cache base path, using forward slashes.
type CacheEntry struct {
	Key  string `json:"key"`
	Hash []byte `json:"hash"`
}

// FirstNonBlank returns the first value that is not empty after trimming
// whitespace, or "" when none is.
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ReconcileResult describes one pull request cache reconciliation.
type ReconcileResult struct {
	BasePath           string   `json:"base_path"`
	Total              int      `json:"total"`
	Unchanged          []string `json:"unchanged"`
	UnchangedFilesPath string   `json:"unchanged_files_path,omitempty"`
}
