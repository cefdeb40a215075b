package domain

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DescriptorFileName is the per-project descriptor written by the build targets.
const DescriptorFileName = "ProjectInfo.xml"

// ProjectType distinguishes product code from test code.
type ProjectType string

const (
	ProjectTypeProduct ProjectType = "Product"
	ProjectTypeTest    ProjectType = "Test"
)

// ParseProjectType maps a descriptor value to a ProjectType. Anything that
// is not "Test" is treated as product code.
func ParseProjectType(s string) ProjectType {
	if strings.EqualFold(strings.TrimSpace(s), string(ProjectTypeTest)) {
		return ProjectTypeTest
	}
	return ProjectTypeProduct
}

// Language is the MSBuild project language as recorded in the descriptor.
type Language string

const (
	LanguageCSharp Language = "C#"
	LanguageVBNet  Language = "VB"
)

func (l Language) IsCSharp() bool { return strings.EqualFold(string(l), string(LanguageCSharp)) }
func (l Language) IsVBNet() bool  { return strings.EqualFold(string(l), string(LanguageVBNet)) }

// PropertyPrefix returns the analyzer property prefix for the language
// ("cs" or "vbnet"), or "" when the language is not supported.
func (l Language) PropertyPrefix() string {
	switch {
	case l.IsCSharp():
		return "cs"
	case l.IsVBNet():
		return "vbnet"
	default:
		return ""
	}
}

// Well-known analysis result ids.
const (
	AnalysisResultFilesToAnalyze = "FilesToAnalyze"
	AnalysisResultCodeCoverage   = "VisualStudioCodeCoverage"
)

// Setting is a single key/value analysis property.
type Setting struct {
	Key   string `yaml:"key"   json:"key"`
	Value string `yaml:"value" json:"value"`
}

// AnalysisResult points at a file produced for the project during the build.
type AnalysisResult struct {
	ID       string `json:"id"`
	Location string `json:"location"`
}

// ProjectRecord is the in-memory form of one project descriptor.
//
// Records are treated as values: fix-up passes return modified copies
// instead of mutating shared slices.
type ProjectRecord struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Version         string           `json:"version,omitempty"`
	Language        Language         `json:"language"`
	Type            ProjectType      `json:"type"`
	Encoding        string           `json:"encoding,omitempty"`
	FullPath        string           `json:"full_path"`
	DescriptorPath  string           `json:"descriptor_path"`
	IsExcluded      bool             `json:"is_excluded"`
	Settings        []Setting        `json:"settings,omitempty"`
	AnalysisResults []AnalysisResult `json:"analysis_results,omitempty"`
	AnalysisFiles   []string         `json:"analysis_files,omitempty"`
}

// Directory is the project's own directory: the folder holding the project file.
func (r ProjectRecord) Directory() string {
	return filepath.Dir(r.FullPath)
}

// IDString renders the identity the way the properties file expects it.
func (r ProjectRecord) IDString() string {
	return FormatID(r.ID)
}

// FormatID renders a project identity as an upper-case canonical GUID.
func FormatID(id uuid.UUID) string {
	return strings.ToUpper(id.String())
}

// Setting looks up an analysis setting by exact key.
func (r ProjectRecord) Setting(key string) (string, bool) {
	for _, s := range r.Settings {
		if s.Key == key {
			return s.Value, true
		}
	}
	return "", false
}

// AnalysisResultLocation returns the location of the analysis result with the given id.
func (r ProjectRecord) AnalysisResultLocation(id string) (string, bool) {
	for _, ar := range r.AnalysisResults {
		if strings.EqualFold(ar.ID, id) {
			return ar.Location, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the record.
func (r ProjectRecord) Clone() ProjectRecord {
	c := r
	c.Settings = append([]Setting(nil), r.Settings...)
	c.AnalysisResults = append([]AnalysisResult(nil), r.AnalysisResults...)
	c.AnalysisFiles = append([]string(nil), r.AnalysisFiles...)
	return c
}

// WithSetting returns a copy with key set to value, replacing an existing entry in place.
func (r ProjectRecord) WithSetting(key, value string) ProjectRecord {
	c := r.Clone()
	for i, s := range c.Settings {
		if s.Key == key {
			c.Settings[i].Value = value
			return c
		}
	}
	c.Settings = append(c.Settings, Setting{Key: key, Value: value})
	return c
}

// WithoutSetting returns a copy with every entry for key removed.
func (r ProjectRecord) WithoutSetting(key string) ProjectRecord {
	c := r.Clone()
	kept := c.Settings[:0]
	for _, s := range c.Settings {
		if s.Key != key {
			kept = append(kept, s)
		}
	}
	c.Settings = kept
	return c
}

// WithEncoding returns a copy with the source encoding replaced.
func (r ProjectRecord) WithEncoding(encoding string) ProjectRecord {
	c := r.Clone()
	c.Encoding = encoding
	return c
}
