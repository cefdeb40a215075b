package domain

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// AnalysisConfig holds the settings captured when the analysis began,
// loaded from scanbridge.yaml and the CI environment.
type AnalysisConfig struct {
	ServerURL               string            `yaml:"server_url"                json:"server_url,omitempty"`
	ProjectKey              string            `yaml:"project_key"               json:"project_key"`
	ProjectName             string            `yaml:"project_name"              json:"project_name,omitempty"`
	ProjectVersion          string            `yaml:"project_version"           json:"project_version,omitempty"`
	OutputDir               string            `yaml:"output_dir"                json:"output_dir"`
	ConfigDir               string            `yaml:"config_dir"                json:"config_dir"`
	ScannerWorkingDirectory string            `yaml:"scanner_working_directory" json:"scanner_working_directory"`
	SourcesDirectory        string            `yaml:"sources_directory"         json:"sources_directory,omitempty"`
	SourceEncoding          string            `yaml:"source_encoding"           json:"source_encoding,omitempty"`
	LocalSettings           []Setting         `yaml:"local_settings"            json:"local_settings,omitempty"`
	ServerSettings          []Setting         `yaml:"server_settings"           json:"server_settings,omitempty"`
	PullRequest             PullRequestConfig `yaml:"pull_request"              json:"pull_request"`
}

// PullRequestConfig drives incremental pull request analysis.
type PullRequestConfig struct {
	BaseBranch string `yaml:"base_branch" json:"base_branch,omitempty"`
	CacheFile  string `yaml:"cache_file"  json:"cache_file,omitempty"`
	TokenEnv   string `yaml:"token_env"   json:"token_env,omitempty"`
}

// LocalSetting returns the value of a user-supplied setting. Keys compare
// case-insensitively.
func (c AnalysisConfig) LocalSetting(key string) (string, bool) {
	for _, s := range c.LocalSettings {
		if strings.EqualFold(s.Key, key) {
			return s.Value, true
		}
	}
	return "", false
}

// ExplicitProjectBaseDir is the sonar.projectBaseDir passed by the user, if any.
func (c AnalysisConfig) ExplicitProjectBaseDir() string {
	v, _ := c.LocalSetting(KeyProjectBaseDir)
	return v
}

// PropertiesFilePath is where the generated properties file is written.
func (c AnalysisConfig) PropertiesFilePath() string {
	return filepath.Join(c.OutputDir, PropertiesFileName)
}

// UnchangedFilesPath is where the pull request reconciliation writes its list.
func (c AnalysisConfig) UnchangedFilesPath() string {
	return filepath.Join(c.ConfigDir, UnchangedFilesName)
}

// SonarWorkingDirectory is the scanner engine's working directory.
func (c AnalysisConfig) SonarWorkingDirectory() string {
	return filepath.Join(c.OutputDir, ".sonar")
}

// PullRequestCacheBasePath resolves the directory cache keys are relative to:
// the explicit project base directory, then the CI sources directory, then
// the scanner working directory. It returns "" when none is set.
func (c AnalysisConfig) PullRequestCacheBasePath() string {
	return FirstNonBlank(c.ExplicitProjectBaseDir(), c.SourcesDirectory, c.ScannerWorkingDirectory)
}

// GlobalSettings merges local and server settings, local first and winning
// on duplicate keys, without credentials, malformed keys or keys the header
// writes itself.
func (c AnalysisConfig) GlobalSettings() []Setting {
	seen := make(map[string]bool)
	var out []Setting
	for _, group := range [][]Setting{c.LocalSettings, c.ServerSettings} {
		for _, s := range group {
			k := strings.ToLower(s.Key)
			if seen[k] || !IsValidPropertyKey(s.Key) || IsSensitiveProperty(s.Key) || IsReservedGlobalKey(s.Key) {
				continue
			}
			seen[k] = true
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c AnalysisConfig) Validate() error {
	// 1. project key is mandatory
	if strings.TrimSpace(c.ProjectKey) == "" {
		return fmt.Errorf("project_key must not be empty")
	}

	// 2. output_dir is mandatory
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output_dir must not be empty")
	}

	// 3. server_url must be absolute http(s) if set
	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server_url %q must be an absolute http or https URL", c.ServerURL)
		}
	}

	// 4. settings need keys
	for i, s := range c.LocalSettings {
		if strings.TrimSpace(s.Key) == "" {
			return fmt.Errorf("local_settings[%d].key must not be empty", i)
		}
	}
	for i, s := range c.ServerSettings {
		if strings.TrimSpace(s.Key) == "" {
			return fmt.Errorf("server_settings[%d].key must not be empty", i)
		}
	}

	return nil
}
