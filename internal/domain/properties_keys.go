package domain

import (
	"strings"
	"unicode"
)

// Scanner property keys.
const (
	KeyProjectKey          = "sonar.projectKey"
	KeyProjectName         = "sonar.projectName"
	KeyProjectVersion      = "sonar.projectVersion"
	KeyProjectBaseDir      = "sonar.projectBaseDir"
	KeyWorkingDirectory    = "sonar.working.directory"
	KeySourceEncoding      = "sonar.sourceEncoding"
	KeySources             = "sonar.sources"
	KeyTests               = "sonar.tests"
	KeyModules             = "sonar.modules"
	KeyPullRequestCacheDir = "sonar.pullrequest.cache.basepath"
	KeyUnchangedFilesPath  = "sonar.pullrequest.unchangedFilesPath"
	KeySCMRevision         = "sonar.scm.revision"
)

// IsValidPropertyKey reports whether key can be written unescaped on the
// left of a properties line: not blank, and free of separators, comment
// markers, whitespace and control characters that would split the line or
// start a new entry.
func IsValidPropertyKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "#") || strings.HasPrefix(key, "!") {
		return false
	}
	for _, r := range key {
		if r == '=' || r == ':' || r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ReservedGlobalKeys are written by the properties header and are dropped
// from the global settings block.
var ReservedGlobalKeys = []string{
	KeyProjectKey,
	KeyProjectName,
	KeyProjectVersion,
	KeyProjectBaseDir,
	KeyWorkingDirectory,
	KeyModules,
}

// IsReservedGlobalKey reports whether key is one of ReservedGlobalKeys.
func IsReservedGlobalKey(key string) bool {
	for _, k := range ReservedGlobalKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// OutputPathKind identifies which per-project output bucket a setting feeds.
type OutputPathKind int

const (
	OutputAnalyzerOut OutputPathKind = iota + 1
	OutputRoslynReport
)

// outputPathSuffixes is checked in order; the first matching suffix wins.
var outputPathSuffixes = []struct {
	suffix string
	kind   OutputPathKind
}{
	{".analyzer.projectOutPath", OutputAnalyzerOut},
	{".roslyn.reportFilePath", OutputRoslynReport},
}

// ClassifyOutputSetting maps a per-project setting key onto its output bucket.
func ClassifyOutputSetting(key string) (OutputPathKind, bool) {
	for _, s := range outputPathSuffixes {
		if strings.HasSuffix(key, s.suffix) {
			return s.kind, true
		}
	}
	return 0, false
}

// PathListSeparator joins several paths inside one setting value.
const PathListSeparator = "|"

// SplitPathList splits a setting value into its non-blank paths.
func SplitPathList(value string) []string {
	var paths []string
	for _, p := range strings.Split(value, PathListSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// RoslynReportSettingKey is the per-project SARIF report setting for a language prefix.
func RoslynReportSettingKey(prefix string) string {
	return "sonar." + prefix + ".roslyn.reportFilePath"
}

// AnalyzerOutPathsKey is the multi-value analyzer output key for a language.
func AnalyzerOutPathsKey(lang Language) string {
	if p := lang.PropertyPrefix(); p != "" {
		return "sonar." + p + ".analyzer.projectOutPaths"
	}
	return ""
}

// RoslynReportPathsKey is the multi-value SARIF report key for a language.
func RoslynReportPathsKey(lang Language) string {
	if p := lang.PropertyPrefix(); p != "" {
		return "sonar." + p + ".roslyn.reportFilePaths"
	}
	return ""
}

// CoverageReportsKey is the Visual Studio coverage report key for a language.
func CoverageReportsKey(lang Language) string {
	if p := lang.PropertyPrefix(); p != "" {
		return "sonar." + p + ".vscoveragexml.reportsPaths"
	}
	return ""
}
