package domain

import "context"

// ProjectLoader discovers project descriptors below an output root.
type ProjectLoader interface {
	LoadAll(rootDir string) ([]ProjectRecord, error)
}

// ProjectClassifier decides the validity of a single record.
type ProjectClassifier interface {
	Classify(record ProjectRecord) ProjectStatus
}

// SarifFixer returns a usable path for a SARIF report, or "" when the report
// cannot be used. language is the analyzer prefix ("cs" or "vbnet").
type SarifFixer interface {
	Fix(path, language string) string
}

// EncodingResolver canonicalises a source encoding name.
type EncodingResolver interface {
	Resolve(name string) string
}

// SensitiveDataPredicate reports whether a key/value pair carries a credential.
type SensitiveDataPredicate func(key, value string) bool

// ConfigLoader reads the analysis configuration.
type ConfigLoader interface {
	Load(path string) (AnalysisConfig, error)
}

// CacheSource supplies the server's prior-analysis cache entries.
type CacheSource interface {
	Entries(ctx context.Context) ([]CacheEntry, error)
}

// ContentHasher computes the cache hash of a local file.
type ContentHasher interface {
	Hash(path string) ([]byte, error)
}

// UnchangedFilesStore persists the list of files unchanged since the base branch.
type UnchangedFilesStore interface {
	Write(path string, files []string) error
	Invalidate(path string) error
}

// RevisionProvider resolves the SCM revision checked out at a path.
type RevisionProvider interface {
	CommitHash(path string) (string, error)
}

// RunHistory records generation runs.
type RunHistory interface {
	Save(outputDir string, entry HistoryEntry) error
	Load(outputDir string) ([]HistoryEntry, error)
}
