package aggregation

import (
	"github.com/scanbridge/scanbridge/internal/domain"
)

// ComputeRootBaseDir picks the base directory of the whole analysis: the
// explicit value, then the CI sources directory, then the common root of
// all project directories, then the output directory.
func ComputeRootBaseDir(explicit, sourcesDir string, projectDirs []string, outputDir string) string {
	return domain.FirstNonBlank(explicit, sourcesDir, domain.CommonRoot(projectDirs), outputDir)
}

// PromoteSharedFiles moves every external file of the given projects that is
// not inside any project directory to a single shared list, de-duplicated
// case-insensitively in project order. Promoted files are removed from the
// projects' external sets so they are written once. A Valid project left
// without module files is downgraded to NoFilesToAnalyze.
func PromoteSharedFiles(projects []*domain.ProjectData, projectDirs []string) []string {
	shared := domain.NewPathSet()
	for _, p := range projects {
		if p.Status != domain.StatusValid {
			continue
		}
		for _, file := range p.ExternalFiles.Items() {
			if domain.IsPartOfAnyProject(file, projectDirs) {
				continue
			}
			shared.Add(file)
			p.ExternalFiles.Remove(file)
		}
		if p.FileCount() == 0 {
			p.Status = domain.StatusNoFilesToAnalyze
		}
	}
	return shared.Items()
}
