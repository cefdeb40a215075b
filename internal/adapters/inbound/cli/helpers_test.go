package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/scanbridge/scanbridge/internal/adapters/inbound/cli"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/config"
	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/stretchr/testify/require"
)

const appGUID = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

type build struct {
	root    string
	config  string
	out     string
	program string
}

// newBuild lays out <root>/conf/scanbridge.yaml, <root>/src and, when
// withProject is set, one C# project descriptor under <root>/out.
func newBuild(t *testing.T, withProject bool) build {
	t.Helper()
	for _, key := range []string{config.EnvSourcesDirectory, config.EnvLegacySourcesDirectory, config.EnvServerURL, config.EnvProjectKey, config.EnvOutputDir} {
		t.Setenv(key, "")
	}

	root := t.TempDir()
	b := build{
		root:    root,
		config:  filepath.Join(root, "conf", config.FileName),
		out:     filepath.Join(root, "out"),
		program: filepath.Join(root, "src", "App", "Program.cs"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(b.program), 0o755))
	require.NoError(t, os.WriteFile(b.program, []byte("class Program {}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(b.config), 0o755))
	require.NoError(t, os.MkdirAll(b.out, 0o755))
	yaml := "project_key: demo\nproject_name: Demo\noutput_dir: ../out\nscanner_working_directory: ../work\nsources_directory: ../src\n"
	require.NoError(t, os.WriteFile(b.config, []byte(yaml), 0o644))

	if withProject {
		dir := filepath.Join(b.out, "0")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		list := filepath.Join(dir, "FilesToAnalyze.txt")
		require.NoError(t, os.WriteFile(list, []byte(b.program+"\n"), 0o644))
		xml := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<ProjectInfo xmlns="http://www.sonarsource.com/msbuild/integration/2015/1">
  <ProjectName>App</ProjectName>
  <ProjectLanguage>C#</ProjectLanguage>
  <ProjectType>Product</ProjectType>
  <ProjectGuid>%s</ProjectGuid>
  <FullPath>%s</FullPath>
  <IsExcluded>false</IsExcluded>
  <AnalysisResults>
    <AnalysisResult Id="FilesToAnalyze" Location="%s" />
  </AnalysisResults>
</ProjectInfo>
`, appGUID, filepath.Join(filepath.Dir(b.program), "App.csproj"), list)
		require.NoError(t, os.WriteFile(filepath.Join(dir, domain.DescriptorFileName), []byte(xml), 0o644))
	}
	return b
}

// run executes the root command and returns stdout, stderr and the error.
func run(args ...string) (string, string, error) {
	cmd := cli.NewRootCmdForTest()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
