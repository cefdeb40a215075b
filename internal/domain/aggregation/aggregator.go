// Package aggregation groups project descriptor records by project identity
// and partitions their files into owned, external and shared sets.
package aggregation

import (
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/scanbridge/scanbridge/internal/domain"
)

// Aggregator implements the grouping pass. It is stateless between calls.
type Aggregator struct {
	classifier domain.ProjectClassifier
	logger     *slog.Logger
}

func New(classifier domain.ProjectClassifier, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{classifier: classifier, logger: logger}
}

// Aggregate returns one ProjectData per distinct project id, sorted by id.
// A group is Valid when any of its members classifies as Valid, and the files
// of every Valid member are merged in. The input slice is not modified.
func (a *Aggregator) Aggregate(records []domain.ProjectRecord, rootBaseDir string) []*domain.ProjectData {
	groups := make(map[uuid.UUID][]domain.ProjectRecord)
	for _, r := range records {
		groups[r.ID] = append(groups[r.ID], r)
	}

	ids := make([]uuid.UUID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return domain.FormatID(ids[i]) < domain.FormatID(ids[j])
	})

	out := make([]*domain.ProjectData, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.aggregateGroup(id, groups[id], rootBaseDir))
	}
	return out
}

func (a *Aggregator) aggregateGroup(id uuid.UUID, members []domain.ProjectRecord, rootBaseDir string) *domain.ProjectData {
	members = append([]domain.ProjectRecord(nil), members...)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].DescriptorPath < members[j].DescriptorPath
	})

	data := domain.NewProjectData(id)
	data.Project = members[0].Clone()

	if id == uuid.Nil {
		data.Status = domain.StatusInvalidGuid
		return data
	}

	data.Status = domain.StatusExcludeFlagSet
	for _, member := range members {
		if a.classifier.Classify(member) != domain.StatusValid {
			continue
		}
		if data.Status != domain.StatusValid {
			data.Status = domain.StatusValid
			data.Project = member.Clone()
		}
		a.addFiles(data, member, rootBaseDir)
		addOutputPaths(data, member)
	}

	if data.Status == domain.StatusValid && data.FileCount() == 0 {
		a.logger.Warn("project has no files to analyze",
			"project", data.Project.Name, "id", data.IDString())
		data.Status = domain.StatusNoFilesToAnalyze
	}
	return data
}

func (a *Aggregator) addFiles(data *domain.ProjectData, member domain.ProjectRecord, rootBaseDir string) {
	projectDir := member.Directory()
	for _, file := range member.AnalysisFiles {
		if _, err := os.Stat(file); err != nil {
			a.logger.Warn("analysis file does not exist, skipping",
				"file", file, "project", member.Name)
			continue
		}
		switch {
		case domain.IsUnderFolder(file, projectDir):
			data.OwnedFiles.Add(file)
		case domain.IsUnderFolder(file, rootBaseDir):
			data.ExternalFiles.Add(file)
		default:
			a.logger.Warn("file is outside the project directory and the base directory, skipping",
				"file", file, "project", member.Name, "base_dir", rootBaseDir)
		}
	}
}

func addOutputPaths(data *domain.ProjectData, member domain.ProjectRecord) {
	for _, s := range member.Settings {
		kind, ok := domain.ClassifyOutputSetting(s.Key)
		if !ok {
			continue
		}
		target := data.AnalyzerOutPaths
		if kind == domain.OutputRoslynReport {
			target = data.RoslynReportPaths
		}
		for _, p := range domain.SplitPathList(s.Value) {
			target.Add(p)
		}
	}
}

// ProjectDirectories returns the distinct directories of every record, in
// first-seen order.
func ProjectDirectories(records []domain.ProjectRecord) []string {
	set := domain.NewPathSet()
	for _, r := range records {
		set.Add(r.Directory())
	}
	return set.Items()
}

// ValidProjects filters the aggregates down to the Valid ones, preserving order.
func ValidProjects(projects []*domain.ProjectData) []*domain.ProjectData {
	var valid []*domain.ProjectData
	for _, p := range projects {
		if p.Status == domain.StatusValid {
			valid = append(valid, p)
		}
	}
	return valid
}

// StatusMap renders the id to classification map reported to callers.
func StatusMap(projects []*domain.ProjectData) map[string]domain.ProjectStatus {
	m := make(map[string]domain.ProjectStatus, len(projects))
	for _, p := range projects {
		m[p.IDString()] = p.Status
	}
	return m
}
