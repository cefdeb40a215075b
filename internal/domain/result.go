package domain

import "time"

// PropertiesFileName is the reserved name of the generated scanner configuration.
const PropertiesFileName = "sonar-project.properties"

// ProjectSummary is a reporting view of one ProjectData.
type ProjectSummary struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Language Language      `json:"language"`
	Type     ProjectType   `json:"type"`
	Status   ProjectStatus `json:"status"`
	Files    int           `json:"files"`
}

// AggregationResult is what the properties generation hands back to its caller.
// An empty PropertiesPath means generation failed; the cause has already been logged.
type AggregationResult struct {
	Statuses       map[string]ProjectStatus `json:"statuses"`
	Projects       []ProjectSummary         `json:"projects,omitempty"`
	SharedFiles    int                      `json:"shared_files"`
	Completed      bool                     `json:"completed"`
	PropertiesPath string                   `json:"properties_path,omitempty"`
	Revision       string                   `json:"revision,omitempty"`
}

func NewAggregationResult() *AggregationResult {
	return &AggregationResult{Statuses: make(map[string]ProjectStatus)}
}

// Succeeded reports whether a properties file was produced.
func (r *AggregationResult) Succeeded() bool {
	return r.PropertiesPath != ""
}

// CountByStatus returns how many projects carry the given status.
func (r *AggregationResult) CountByStatus(status ProjectStatus) int {
	n := 0
	for _, s := range r.Statuses {
		if s == status {
			n++
		}
	}
	return n
}

// HistoryEntry records one generation run.
type HistoryEntry struct {
	Timestamp      string                   `json:"timestamp"`
	Revision       string                   `json:"revision,omitempty"`
	PropertiesPath string                   `json:"properties_path,omitempty"`
	Statuses       map[string]ProjectStatus `json:"statuses"`
	AnalyzedFiles  int                      `json:"analyzed_files"`
	SharedFiles    int                      `json:"shared_files"`
}

// NewHistoryEntry summarizes a generation run finished at the given time.
// AnalyzedFiles counts the files of valid projects only.
func NewHistoryEntry(r *AggregationResult, at time.Time) HistoryEntry {
	entry := HistoryEntry{
		Timestamp:      at.UTC().Format(time.RFC3339),
		Revision:       r.Revision,
		PropertiesPath: r.PropertiesPath,
		Statuses:       r.Statuses,
		SharedFiles:    r.SharedFiles,
	}
	for _, p := range r.Projects {
		if p.Status == StatusValid {
			entry.AnalyzedFiles += p.Files
		}
	}
	return entry
}
