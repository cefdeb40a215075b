package application

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/scanbridge/scanbridge/internal/domain/aggregation"
	"github.com/scanbridge/scanbridge/internal/domain/properties"
)

// analyzerPrefixes are the languages whose SARIF reports get fixed up.
var analyzerPrefixes = []string{"cs", "vbnet"}

const defaultEncoding = "utf-8"

// PropertiesService orchestrates properties generation:
// load → fix up records → aggregate → check for conflicts → serialize → write.
type PropertiesService struct {
	loader     domain.ProjectLoader
	classifier domain.ProjectClassifier
	sarif      domain.SarifFixer
	encodings  domain.EncodingResolver
	revisions  domain.RevisionProvider
	sensitive  domain.SensitiveDataPredicate
	logger     *slog.Logger
}

// NewPropertiesService wires the service. revisions may be nil, in which
// case sonar.scm.revision is only written when configured.
func NewPropertiesService(
	loader domain.ProjectLoader,
	classifier domain.ProjectClassifier,
	sarif domain.SarifFixer,
	encodings domain.EncodingResolver,
	revisions domain.RevisionProvider,
	logger *slog.Logger,
) *PropertiesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertiesService{
		loader:     loader,
		classifier: classifier,
		sarif:      sarif,
		encodings:  encodings,
		revisions:  revisions,
		sensitive:  domain.ContainsSensitiveData,
		logger:     logger,
	}
}

// plan is everything the aggregation pass decided, before anything is written.
type plan struct {
	result      *domain.AggregationResult
	baseDir     string
	valid       []*domain.ProjectData
	sharedFiles []string
}

// GenerateProperties writes sonar-project.properties for the analysis
// described by cfg. Input problems are logged and reported through a result
// without a properties path; only I/O failures are returned as errors.
func (s *PropertiesService) GenerateProperties(cfg domain.AnalysisConfig) (*domain.AggregationResult, error) {
	p, ok, err := s.plan(cfg)
	if err != nil || !ok {
		return p.result, err
	}

	// 5. Check no stale properties file would shadow the generated one
	if conflicts := s.conflictingDirectories(cfg, p.valid); len(conflicts) > 0 {
		s.logger.Error(fmt.Sprintf("a %s file already exists; remove it, the analysis settings are generated", domain.PropertiesFileName),
			"directories", strings.Join(conflicts, ", "))
		return p.result, nil
	}

	// 6. Serialize
	w := properties.NewWriter(cfg, s.sensitive)
	for _, project := range p.valid {
		w.WriteSettingsForProject(project, s.coveragePath(project))
	}
	w.WriteSonarProjectInfo(p.baseDir)
	w.WriteSharedFiles(p.sharedFiles)
	global, revision := s.globalSettings(cfg, p.baseDir)
	w.WriteGlobalSettings(global)
	content := w.Flush()

	// 7. Write
	path := cfg.PropertiesFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return p.result, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(toASCII(content)), 0o644); err != nil {
		return p.result, fmt.Errorf("writing %s: %w", domain.PropertiesFileName, err)
	}

	s.logger.Info("generated analysis properties", "path", path, "projects", len(p.valid), "shared_files", len(p.sharedFiles))
	p.result.PropertiesPath = path
	p.result.Revision = revision
	return p.result, nil
}

// Preview runs the aggregation pass without writing anything.
func (s *PropertiesService) Preview(cfg domain.AnalysisConfig) (*domain.AggregationResult, error) {
	p, _, err := s.plan(cfg)
	return p.result, err
}

func (s *PropertiesService) plan(cfg domain.AnalysisConfig) (plan, bool, error) {
	p := plan{result: domain.NewAggregationResult()}

	// 1. Load descriptors
	records, err := s.loader.LoadAll(cfg.OutputDir)
	if err != nil {
		return p, false, fmt.Errorf("loading project descriptors: %w", err)
	}
	if len(records) == 0 {
		s.logger.Error(fmt.Sprintf("no %s files were found; check the build ran with the analysis targets", domain.DescriptorFileName),
			"dir", cfg.OutputDir)
		return p, false, nil
	}
	s.logger.Debug("loaded project descriptors", "count", len(records))

	// 2. Fix up each record
	override := s.encodingOverride(cfg)
	for i := range records {
		records[i] = s.fixRecord(records[i], override)
	}

	// 3. Aggregate
	projectDirs := aggregation.ProjectDirectories(records)
	p.baseDir = aggregation.ComputeRootBaseDir(cfg.ExplicitProjectBaseDir(), cfg.SourcesDirectory, projectDirs, cfg.OutputDir)
	s.logger.Debug("resolved project base directory", "dir", p.baseDir)

	projects := aggregation.New(s.classifier, s.logger).Aggregate(records, p.baseDir)
	p.result.Statuses = aggregation.StatusMap(projects)
	if len(aggregation.ValidProjects(projects)) == 0 {
		s.logger.Error(fmt.Sprintf("no valid %s files were found", domain.DescriptorFileName),
			"projects", len(projects))
		p.result.Projects = summaries(projects)
		return p, false, nil
	}

	// 4. Promote files shared between projects
	p.sharedFiles = aggregation.PromoteSharedFiles(projects, projectDirs)
	p.valid = aggregation.ValidProjects(projects)
	p.result.Statuses = aggregation.StatusMap(projects)
	p.result.Projects = summaries(projects)
	p.result.SharedFiles = len(p.sharedFiles)
	if len(p.valid) == 0 && len(p.sharedFiles) == 0 {
		s.logger.Error("no analysable projects were found")
		return p, false, nil
	}
	return p, true, nil
}

// fixRecord returns a corrected copy of r; the input is never modified.
func (s *PropertiesService) fixRecord(r domain.ProjectRecord, encodingOverride string) domain.ProjectRecord {
	r = r.Clone()
	for _, prefix := range analyzerPrefixes {
		r = s.fixSarifReports(r, prefix)
	}
	r = s.fixEncoding(r, encodingOverride)
	r = s.dropMalformedSettings(r)
	return s.dropSensitiveSettings(r)
}

func (s *PropertiesService) fixSarifReports(r domain.ProjectRecord, prefix string) domain.ProjectRecord {
	key := domain.RoslynReportSettingKey(prefix)
	value, ok := r.Setting(key)
	if !ok {
		return r
	}

	var fixed []string
	for _, path := range domain.SplitPathList(value) {
		if f := s.sarif.Fix(path, prefix); f != "" {
			fixed = append(fixed, f)
		}
	}
	if len(fixed) == 0 {
		s.logger.Warn("no usable roslyn analyzer report, the setting is dropped", "project", r.Name, "key", key)
		return r.WithoutSetting(key)
	}
	return r.WithSetting(key, strings.Join(fixed, domain.PathListSeparator))
}

// fixEncoding keeps a project's own encoding even when a global override is
// configured, takes the override when the project has none, and defaults
// C# and VB projects to UTF-8.
func (s *PropertiesService) fixEncoding(r domain.ProjectRecord, override string) domain.ProjectRecord {
	own := strings.TrimSpace(r.Encoding)
	switch {
	case own != "" && override != "":
		s.logger.Warn("sonar.sourceEncoding is set globally; the project keeps its own encoding",
			"project", r.Name, "encoding", own, "global", override)
		return r.WithEncoding(s.encodings.Resolve(own))
	case own != "":
		return r.WithEncoding(s.encodings.Resolve(own))
	case override != "":
		return r.WithEncoding(s.encodings.Resolve(override))
	case r.Language.PropertyPrefix() != "":
		return r.WithEncoding(defaultEncoding)
	default:
		return r
	}
}

// dropMalformedSettings removes settings whose key would corrupt the
// properties file, such as a key holding '=' or a line break.
func (s *PropertiesService) dropMalformedSettings(r domain.ProjectRecord) domain.ProjectRecord {
	kept := make([]domain.Setting, 0, len(r.Settings))
	for _, setting := range r.Settings {
		if domain.IsValidPropertyKey(setting.Key) {
			kept = append(kept, setting)
			continue
		}
		s.logger.Warn("project setting has an invalid key, it is not written", "project", r.Name, "key", setting.Key)
	}
	r.Settings = kept
	return r
}

func (s *PropertiesService) dropSensitiveSettings(r domain.ProjectRecord) domain.ProjectRecord {
	for _, setting := range r.Settings {
		if s.sensitive(setting.Key, setting.Value) {
			s.logger.Warn("project setting carries credentials, it is not written", "project", r.Name, "key", setting.Key)
			r = r.WithoutSetting(setting.Key)
		}
	}
	return r
}

func (s *PropertiesService) encodingOverride(cfg domain.AnalysisConfig) string {
	v, _ := cfg.LocalSetting(domain.KeySourceEncoding)
	return strings.TrimSpace(domain.FirstNonBlank(cfg.SourceEncoding, v))
}

// conflictingDirectories lists the directories that already hold a
// properties file: the scanner working directory and every valid project.
func (s *PropertiesService) conflictingDirectories(cfg domain.AnalysisConfig, valid []*domain.ProjectData) []string {
	candidates := domain.NewPathSet()
	if cfg.ScannerWorkingDirectory != "" {
		candidates.Add(cfg.ScannerWorkingDirectory)
	}
	for _, p := range valid {
		candidates.Add(p.Project.Directory())
	}

	var conflicts []string
	for _, dir := range candidates.Items() {
		if info, err := os.Stat(filepath.Join(dir, domain.PropertiesFileName)); err == nil && !info.IsDir() {
			conflicts = append(conflicts, dir)
		}
	}
	return conflicts
}

func (s *PropertiesService) coveragePath(p *domain.ProjectData) string {
	loc, ok := p.Project.AnalysisResultLocation(domain.AnalysisResultCodeCoverage)
	if !ok || strings.TrimSpace(loc) == "" {
		return ""
	}
	if _, err := os.Stat(loc); err != nil {
		s.logger.Warn("code coverage report does not exist", "project", p.Project.Name, "path", loc)
		return ""
	}
	return loc
}

// globalSettings assembles the global block and returns the SCM revision
// written into it, if any.
func (s *PropertiesService) globalSettings(cfg domain.AnalysisConfig, baseDir string) ([]domain.Setting, string) {
	settings := cfg.GlobalSettings()
	has := func(key string) bool {
		for _, st := range settings {
			if strings.EqualFold(st.Key, key) {
				return true
			}
		}
		return false
	}
	var dropped []domain.Setting
	kept := settings[:0]
	for _, st := range settings {
		if s.sensitive(st.Key, st.Value) {
			dropped = append(dropped, st)
			continue
		}
		kept = append(kept, st)
	}
	settings = kept
	for _, st := range dropped {
		s.logger.Warn("global setting carries credentials, it is not written", "key", st.Key)
	}

	if cfg.SourceEncoding != "" && !has(domain.KeySourceEncoding) {
		settings = append(settings, domain.Setting{Key: domain.KeySourceEncoding, Value: s.encodings.Resolve(cfg.SourceEncoding)})
	}
	if base := cfg.PullRequestCacheBasePath(); base != "" && !has(domain.KeyPullRequestCacheDir) {
		settings = append(settings, domain.Setting{Key: domain.KeyPullRequestCacheDir, Value: base})
	}
	if list := cfg.UnchangedFilesPath(); !has(domain.KeyUnchangedFilesPath) {
		if _, err := os.Stat(list); err == nil {
			settings = append(settings, domain.Setting{Key: domain.KeyUnchangedFilesPath, Value: list})
		}
	}

	for _, st := range settings {
		if strings.EqualFold(st.Key, domain.KeySCMRevision) {
			return settings, st.Value
		}
	}
	if s.revisions == nil {
		return settings, ""
	}
	revision, err := s.revisions.CommitHash(baseDir)
	if err != nil {
		s.logger.Debug("no scm revision", "dir", baseDir, "error", err)
		return settings, ""
	}
	return append(settings, domain.Setting{Key: domain.KeySCMRevision, Value: revision}), revision
}

func summaries(projects []*domain.ProjectData) []domain.ProjectSummary {
	out := make([]domain.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Summary())
	}
	return out
}

// toASCII replaces anything outside 7-bit ASCII. Values are already escaped,
// so only raw setting keys can still carry such characters.
func toASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0x7f {
			return '?'
		}
		return r
	}, s)
}
