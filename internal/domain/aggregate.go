package domain

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ProjectStatus is the validity classification of a project.
type ProjectStatus string

const (
	StatusValid            ProjectStatus = "Valid"
	StatusInvalidGuid      ProjectStatus = "InvalidGuid"
	StatusExcludeFlagSet   ProjectStatus = "ExcludeFlagSet"
	StatusNoFilesToAnalyze ProjectStatus = "NoFilesToAnalyze"
)

// PathSet is an insertion-ordered set of file paths compared case-insensitively.
type PathSet struct {
	index map[string]int
	items []string
}

func NewPathSet() *PathSet {
	return &PathSet{index: make(map[string]int)}
}

func pathKey(p string) string {
	return strings.ToLower(filepath.Clean(p))
}

// Add inserts p and reports whether it was not already present.
func (s *PathSet) Add(p string) bool {
	k := pathKey(p)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, p)
	return true
}

func (s *PathSet) Contains(p string) bool {
	_, ok := s.index[pathKey(p)]
	return ok
}

// Remove deletes p and reports whether it was present.
func (s *PathSet) Remove(p string) bool {
	k := pathKey(p)
	i, ok := s.index[k]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, k)
	for j := i; j < len(s.items); j++ {
		s.index[pathKey(s.items[j])] = j
	}
	return true
}

func (s *PathSet) Len() int { return len(s.items) }

// Items returns a copy of the paths in insertion order.
func (s *PathSet) Items() []string {
	return append([]string(nil), s.items...)
}

// ProjectData is the merged, classified view of every record sharing one project id.
type ProjectData struct {
	ID                uuid.UUID
	Project           ProjectRecord
	Status            ProjectStatus
	OwnedFiles        *PathSet
	ExternalFiles     *PathSet
	AnalyzerOutPaths  *PathSet
	RoslynReportPaths *PathSet
}

func NewProjectData(id uuid.UUID) *ProjectData {
	return &ProjectData{
		ID:                id,
		OwnedFiles:        NewPathSet(),
		ExternalFiles:     NewPathSet(),
		AnalyzerOutPaths:  NewPathSet(),
		RoslynReportPaths: NewPathSet(),
	}
}

func (p *ProjectData) IDString() string { return FormatID(p.ID) }

// FileCount is the number of owned plus external files.
func (p *ProjectData) FileCount() int {
	return p.OwnedFiles.Len() + p.ExternalFiles.Len()
}

// ModuleFiles lists the files analyzed as part of this project: owned files
// first, then external files that were not promoted to the shared list.
func (p *ProjectData) ModuleFiles() []string {
	files := p.OwnedFiles.Items()
	return append(files, p.ExternalFiles.Items()...)
}

// Summary condenses the aggregate for reporting.
func (p *ProjectData) Summary() ProjectSummary {
	return ProjectSummary{
		ID:       p.IDString(),
		Name:     p.Project.Name,
		Language: p.Project.Language,
		Type:     p.Project.Type,
		Status:   p.Status,
		Files:    p.FileCount(),
	}
}
