package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/scanbridge/scanbridge/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the default name of the analysis configuration file.
const FileName = "scanbridge.yaml"

// dotEnvFile is read from the configuration directory when present.
const dotEnvFile = ".env"

// Environment variables consulted after the file is read.
const (
	EnvSourcesDirectory       = "BUILD_SOURCESDIRECTORY"
	EnvLegacySourcesDirectory = "TF_BUILD_SOURCESDIRECTORY"
	EnvServerURL              = "SCANBRIDGE_SERVER_URL"
	EnvProjectKey             = "SCANBRIDGE_PROJECT_KEY"
	EnvOutputDir              = "SCANBRIDGE_OUTPUT_DIR"
)

// YAMLLoader implements domain.ConfigLoader by reading scanbridge.yaml and
// layering the CI environment on top. The environment is captured once at
// construction and never modified.
type YAMLLoader struct {
	env map[string]string
}

// New creates a YAMLLoader over the current process environment.
func New() *YAMLLoader {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return NewWithEnv(env)
}

// NewWithEnv creates a YAMLLoader over an explicit environment.
func NewWithEnv(env map[string]string) *YAMLLoader {
	return &YAMLLoader{env: env}
}

// Load reads the configuration file at path. A missing file is not an error
// as long as the environment supplies the required values.
func (l *YAMLLoader) Load(path string) (domain.AnalysisConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.AnalysisConfig{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	var cfg domain.AnalysisConfig
	data, err := os.ReadFile(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return domain.AnalysisConfig{}, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return domain.AnalysisConfig{}, fmt.Errorf("parsing %s: %w", FileName, err)
		}
	}

	env, err := l.environment(dir)
	if err != nil {
		return domain.AnalysisConfig{}, err
	}
	applyEnvironment(&cfg, env)

	if err := applyDefaults(&cfg, dir); err != nil {
		return domain.AnalysisConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return domain.AnalysisConfig{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// Getenv looks a variable up in the captured environment, including values
// from a .env file next to the configuration loaded last.
func (l *YAMLLoader) Getenv(key string) string {
	return l.env[key]
}

// environment merges the .env file under the captured environment; real
// variables win over the file.
func (l *YAMLLoader) environment(dir string) (map[string]string, error) {
	merged := make(map[string]string, len(l.env))
	fileEnv, err := godotenv.Read(filepath.Join(dir, dotEnvFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", dotEnvFile, err)
	}
	for k, v := range fileEnv {
		merged[k] = v
	}
	for k, v := range l.env {
		merged[k] = v
	}
	l.env = merged
	return merged, nil
}

func applyEnvironment(cfg *domain.AnalysisConfig, env map[string]string) {
	if cfg.SourcesDirectory == "" {
		cfg.SourcesDirectory = domain.FirstNonBlank(env[EnvSourcesDirectory], env[EnvLegacySourcesDirectory])
	}
	if v := env[EnvServerURL]; v != "" {
		cfg.ServerURL = v
	}
	if v := env[EnvProjectKey]; v != "" {
		cfg.ProjectKey = v
	}
	if v := env[EnvOutputDir]; v != "" {
		cfg.OutputDir = v
	}
}

// applyDefaults fills the directories the file left blank. The file is
// expected in <root>/conf with per-project outputs in <root>/out. Relative
// directories are resolved against the configuration file's directory.
func applyDefaults(cfg *domain.AnalysisConfig, dir string) error {
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = dir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(filepath.Dir(dir), "out")
	}
	if cfg.ScannerWorkingDirectory == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		cfg.ScannerWorkingDirectory = wd
	}
	for _, p := range []*string{&cfg.ConfigDir, &cfg.OutputDir, &cfg.ScannerWorkingDirectory, &cfg.SourcesDirectory} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return nil
}
