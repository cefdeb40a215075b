// Package properties renders the aggregated project graph into the
// sonar-project.properties format read by the scanner engine.
package properties

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scanbridge/scanbridge/internal/domain"
)

// Internal consistency violations. The writer panics with these; they
// indicate a bug upstream, never a runtime condition to recover from.
var (
	ErrFinished      = errors.New("properties: writer already finished")
	ErrDuplicateID   = errors.New("properties: duplicate project id")
	ErrSensitiveData = errors.New("properties: sensitive data reached the output")
)

const multiValueSeparator = ",\\\n"

// Writer accumulates the properties file in an append-only buffer.
// Flush may be called exactly once; nothing may be written afterwards.
type Writer struct {
	cfg       domain.AnalysisConfig
	sensitive domain.SensitiveDataPredicate
	buf       strings.Builder
	projects  []*domain.ProjectData
	finished  bool
}

// NewWriter creates a Writer. A nil predicate falls back to domain.ContainsSensitiveData.
func NewWriter(cfg domain.AnalysisConfig, sensitive domain.SensitiveDataPredicate) *Writer {
	if sensitive == nil {
		sensitive = domain.ContainsSensitiveData
	}
	return &Writer{cfg: cfg, sensitive: sensitive}
}

// WriteSettingsForProject accepts a project and emits its id-scoped block.
// coveragePath may be empty.
func (w *Writer) WriteSettingsForProject(p *domain.ProjectData, coveragePath string) {
	w.ensureWritable()
	w.projects = append(w.projects, p)

	id := p.IDString()
	project := p.Project

	w.appendScoped(id, domain.KeyProjectKey, w.cfg.ProjectKey+":"+id)
	w.appendScoped(id, domain.KeyProjectName, project.Name)
	w.appendScoped(id, domain.KeyProjectBaseDir, project.Directory())
	if strings.TrimSpace(project.Encoding) != "" {
		w.appendScoped(id, domain.KeySourceEncoding, strings.ToLower(project.Encoding))
	}

	filesKey := domain.KeySources
	if project.Type == domain.ProjectTypeTest {
		w.appendScoped(id, domain.KeySources, "")
		filesKey = domain.KeyTests
	}
	w.appendMultiValue(id+"."+filesKey, p.ModuleFiles())
	w.buf.WriteString("\n")

	for _, s := range project.Settings {
		if _, isOutput := domain.ClassifyOutputSetting(s.Key); isOutput {
			continue
		}
		w.appendScoped(id, s.Key, s.Value)
	}

	if key := domain.AnalyzerOutPathsKey(project.Language); key != "" && p.AnalyzerOutPaths.Len() > 0 {
		w.appendMultiValue(id+"."+key, p.AnalyzerOutPaths.Items())
	}
	if key := domain.RoslynReportPathsKey(project.Language); key != "" && p.RoslynReportPaths.Len() > 0 {
		w.appendMultiValue(id+"."+key, p.RoslynReportPaths.Items())
	}
	if key := domain.CoverageReportsKey(project.Language); key != "" && coveragePath != "" {
		w.appendScoped(id, key, coveragePath)
	}
	w.buf.WriteString("\n")
}

// WriteSonarProjectInfo emits the global header: project identity, working
// directories and the base directory. Every project accepted so far gets its
// own working directory, mod0, mod1, ... in acceptance order.
func (w *Writer) WriteSonarProjectInfo(projectBaseDir string) {
	w.ensureWritable()

	w.appendKeyValue(domain.KeyProjectKey, w.cfg.ProjectKey)
	w.appendIfNotBlank(domain.KeyProjectName, w.cfg.ProjectName)
	w.appendIfNotBlank(domain.KeyProjectVersion, w.cfg.ProjectVersion)
	w.appendKeyValue(domain.KeyWorkingDirectory, w.cfg.SonarWorkingDirectory())
	w.appendKeyValue(domain.KeyProjectBaseDir, projectBaseDir)
	w.buf.WriteString("\n")

	for i, p := range w.projects {
		w.appendScoped(p.IDString(), domain.KeyWorkingDirectory,
			filepath.Join(w.cfg.SonarWorkingDirectory(), fmt.Sprintf("mod%d", i)))
	}
	w.buf.WriteString("\n")
}

// WriteSharedFiles emits the root-level sources block. The trailing blank
// line is written even when there are no files.
func (w *Writer) WriteSharedFiles(files []string) {
	w.ensureWritable()
	if len(files) > 0 {
		w.appendMultiValue(domain.KeySources, files)
	}
	w.buf.WriteString("\n")
}

// WriteGlobalSettings emits every setting verbatim.
func (w *Writer) WriteGlobalSettings(settings []domain.Setting) {
	w.ensureWritable()
	for _, s := range settings {
		w.appendKeyValue(s.Key, s.Value)
	}
	w.buf.WriteString("\n")
}

// Flush writes sonar.modules, finishes the writer and returns the content.
func (w *Writer) Flush() string {
	w.ensureWritable()

	ids := make([]string, 0, len(w.projects))
	seen := make(map[string]bool, len(w.projects))
	for _, p := range w.projects {
		id := p.IDString()
		if seen[id] {
			panic(fmt.Errorf("%w: %s", ErrDuplicateID, id))
		}
		seen[id] = true
		ids = append(ids, id)
	}

	w.appendKeyValue(domain.KeyModules, strings.Join(ids, ","))
	w.buf.WriteString("\n")
	w.finished = true
	return w.buf.String()
}

// Finished reports whether Flush has been called.
func (w *Writer) Finished() bool { return w.finished }

func (w *Writer) ensureWritable() {
	if w.finished {
		panic(ErrFinished)
	}
}

func (w *Writer) guard(key, value string) {
	if w.sensitive(key, value) {
		panic(fmt.Errorf("%w: key %q", ErrSensitiveData, key))
	}
}

func (w *Writer) appendKeyValue(key, value string) {
	w.guard(key, value)
	w.buf.WriteString(key)
	w.buf.WriteString("=")
	w.buf.WriteString(Escape(value))
	w.buf.WriteString("\n")
}

func (w *Writer) appendScoped(prefix, key, value string) {
	w.appendKeyValue(prefix+"."+key, value)
}

func (w *Writer) appendIfNotBlank(key, value string) {
	if strings.TrimSpace(value) != "" {
		w.appendKeyValue(key, value)
	}
}

// appendMultiValue writes key=\ followed by one escaped value per line,
// joined with ",\".
func (w *Writer) appendMultiValue(key string, values []string) {
	w.guard(key, "")
	escaped := make([]string, len(values))
	for i, v := range values {
		w.guard(key, v)
		escaped[i] = Escape(v)
	}
	w.buf.WriteString(key)
	w.buf.WriteString("=\\\n")
	w.buf.WriteString(strings.Join(escaped, multiValueSeparator))
	w.buf.WriteString("\n")
}
