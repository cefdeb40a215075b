package sarif_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/sarif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roslyn1Report = `{
  "version": "0.1",
  "toolInfo": {
    "toolName": "Microsoft (R) Visual C# Compiler",
    "productVersion": "1.0.0",
    "fileVersion": "1.0.0"
  },
  "issues": [
    {
      "ruleId": "S1186",
      "locations": [
        {
          "analysisTarget": [
            {
              "uri": "C:\agent\_work\1\s\Program.cs",
              "region": { "startLine": 5 }
            }
          ]
        }
      ]
    }
  ]
}`

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "App.RoslynCA.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFix_ValidReportUnchanged(t *testing.T) {
	path := writeReport(t, `{"version": "1.0.0", "runs": []}`)
	assert.Equal(t, path, sarif.New(nil).Fix(path, "cs"))
	assert.NoFileExists(t, sarif.FixedPath(path))
}

func TestFix_MissingReport(t *testing.T) {
	var buf bytes.Buffer
	f := sarif.New(slog.New(slog.NewTextHandler(&buf, nil)))

	assert.Empty(t, f.Fix(filepath.Join(t.TempDir(), "nope.json"), "cs"))
	assert.Contains(t, buf.String(), "no roslyn analyzer report found")
}

func TestFix_Roslyn1ReportIsRepaired(t *testing.T) {
	path := writeReport(t, roslyn1Report)

	got := sarif.New(nil).Fix(path, "cs")

	require.Equal(t, filepath.Join(filepath.Dir(path), "App.RoslynCA_fixed.json"), got)
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	require.True(t, json.Valid(data))

	var report struct {
		Issues []struct {
			Locations []struct {
				AnalysisTarget []struct {
					URI string `json:"uri"`
				} `json:"analysisTarget"`
			} `json:"locations"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, `C:\agent\_work\1\s\Program.cs`, report.Issues[0].Locations[0].AnalysisTarget[0].URI)
}

func TestFix_WrongLanguageIsNotRepaired(t *testing.T) {
	path := writeReport(t, roslyn1Report)
	assert.Empty(t, sarif.New(nil).Fix(path, "vbnet"))
}

func TestFix_OtherInvalidJSONIsUnusable(t *testing.T) {
	var buf bytes.Buffer
	path := writeReport(t, `{"toolName": "something else", "uri": "C:\x"`)

	assert.Empty(t, sarif.New(slog.New(slog.NewTextHandler(&buf, nil))).Fix(path, "cs"))
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestFixedPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "r_fixed.json"), sarif.FixedPath(filepath.Join("out", "r.json")))
	assert.Equal(t, "report_fixed", sarif.FixedPath("report"))
}
