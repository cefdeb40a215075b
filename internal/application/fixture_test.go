package application_test

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/classifier"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/encoding"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/loader"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/sarif"
	"github.com/scanbridge/scanbridge/internal/application"
	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/stretchr/testify/require"
)

// buildFixture is a fake MSBuild output tree: sources under root/src, one
// descriptor folder per project under root/.sonarqube/out.
type buildFixture struct {
	root string
	out  string
	conf string
	next int
}

func newBuildFixture(t *testing.T) *buildFixture {
	t.Helper()
	root := t.TempDir()
	f := &buildFixture{
		root: root,
		out:  filepath.Join(root, ".sonarqube", "out"),
		conf: filepath.Join(root, ".sonarqube", "conf"),
	}
	require.NoError(t, os.MkdirAll(f.out, 0o755))
	require.NoError(t, os.MkdirAll(f.conf, 0o755))
	return f
}

func (f *buildFixture) config() domain.AnalysisConfig {
	return domain.AnalysisConfig{
		ProjectKey:              "my-key",
		ProjectName:             "My Solution",
		ProjectVersion:          "1.0",
		OutputDir:               f.out,
		ConfigDir:               f.conf,
		ScannerWorkingDirectory: filepath.Join(f.root, "work"),
	}
}

// source creates a file under root/src and returns its absolute path.
func (f *buildFixture) source(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, "src", filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *buildFixture) projectDir(name string) string {
	return filepath.Join(f.root, "src", name)
}

type descriptorSpec struct {
	Name     string
	GUID     string
	Type     string
	Language string
	Dir      string
	Files    []string
	Excluded bool
	Encoding string
	Settings [][2]string
	Coverage string
}

// descriptor writes a ProjectInfo.xml plus its file list into the next
// numbered output folder.
func (f *buildFixture) descriptor(t *testing.T, d descriptorSpec) string {
	t.Helper()
	folder := filepath.Join(f.out, fmt.Sprint(f.next))
	f.next++
	require.NoError(t, os.MkdirAll(folder, 0o755))

	if d.Type == "" {
		d.Type = "Product"
	}
	if d.Language == "" {
		d.Language = "C#"
	}
	if d.Dir == "" {
		d.Dir = f.projectDir(d.Name)
	}

	list := filepath.Join(folder, "FilesToAnalyze.txt")
	require.NoError(t, os.WriteFile(list, []byte(strings.Join(d.Files, "\n")), 0o644))

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<ProjectInfo xmlns="http://www.sonarsource.com/msbuild/integration/2015/1">` + "\n")
	fmt.Fprintf(&b, "  <ProjectName>%s</ProjectName>\n", html.EscapeString(d.Name))
	fmt.Fprintf(&b, "  <ProjectLanguage>%s</ProjectLanguage>\n", html.EscapeString(d.Language))
	fmt.Fprintf(&b, "  <ProjectType>%s</ProjectType>\n", d.Type)
	fmt.Fprintf(&b, "  <ProjectGuid>%s</ProjectGuid>\n", d.GUID)
	fmt.Fprintf(&b, "  <FullPath>%s</FullPath>\n", html.EscapeString(filepath.Join(d.Dir, d.Name+".csproj")))
	fmt.Fprintf(&b, "  <IsExcluded>%t</IsExcluded>\n", d.Excluded)
	if d.Encoding != "" {
		fmt.Fprintf(&b, "  <Encoding>%s</Encoding>\n", d.Encoding)
	}
	b.WriteString("  <AnalysisResults>\n")
	fmt.Fprintf(&b, "    <AnalysisResult Id=\"FilesToAnalyze\" Location=\"%s\" />\n", html.EscapeString(list))
	if d.Coverage != "" {
		fmt.Fprintf(&b, "    <AnalysisResult Id=\"VisualStudioCodeCoverage\" Location=\"%s\" />\n", html.EscapeString(d.Coverage))
	}
	b.WriteString("  </AnalysisResults>\n  <AnalysisSettings>\n")
	for _, s := range d.Settings {
		fmt.Fprintf(&b, "    <Property Name=\"%s\">%s</Property>\n", html.EscapeString(s[0]), html.EscapeString(s[1]))
	}
	b.WriteString("  </AnalysisSettings>\n</ProjectInfo>\n")

	path := filepath.Join(folder, domain.DescriptorFileName)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

type stubRevisions struct {
	hash string
	err  error
}

func (s stubRevisions) CommitHash(string) (string, error) { return s.hash, s.err }

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func newPropertiesService(logger *slog.Logger, revisions domain.RevisionProvider) *application.PropertiesService {
	return application.NewPropertiesService(
		loader.New(logger),
		classifier.New(),
		sarif.New(logger),
		encoding.New(),
		revisions,
		logger,
	)
}

func readProperties(t *testing.T, result *domain.AggregationResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.PropertiesPath, "properties file should have been generated")
	data, err := os.ReadFile(result.PropertiesPath)
	require.NoError(t, err)
	return string(data)
}
