// Package sarif repairs the invalid JSON reports written by the 1.x Roslyn
// compilers, which left file URIs unescaped.
package sarif

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	fixedSuffix = "_fixed"
	uriMarker   = `"uri": "`
)

// compilerNames maps the analyzer property prefix to the tool name Roslyn
// wrote into its reports.
var compilerNames = map[string]string{
	"cs":    "Microsoft (R) Visual C# Compiler",
	"vbnet": "Microsoft (R) Visual Basic Compiler",
}

// Fixer implements domain.SarifFixer.
type Fixer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Fixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fixer{logger: logger}
}

// Fix returns path when the report is valid JSON, the path of a repaired copy
// when it was a fixable Roslyn 1.x report, and "" otherwise.
func (f *Fixer) Fix(path, language string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		f.logger.Info("no roslyn analyzer report found", "path", path)
		return ""
	}
	if json.Valid(data) {
		return path
	}

	content := string(data)
	if !isRoslyn1Report(content, language) {
		f.logger.Warn("roslyn analyzer report is not valid JSON and cannot be fixed", "path", path)
		return ""
	}

	fixed := escapeURIs(content)
	if !json.Valid([]byte(fixed)) {
		f.logger.Warn("roslyn analyzer report could not be fixed", "path", path)
		return ""
	}

	out := FixedPath(path)
	if err := os.WriteFile(out, []byte(fixed), 0o644); err != nil {
		f.logger.Warn("writing fixed roslyn analyzer report", "path", out, "error", err)
		return ""
	}
	f.logger.Debug("fixed roslyn analyzer report", "path", path, "fixed", out)
	return out
}

// FixedPath is where the repaired copy of a report is written: report.json
// becomes report_fixed.json.
func FixedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + fixedSuffix + ext
}

func isRoslyn1Report(content, language string) bool {
	tool, ok := compilerNames[language]
	if !ok {
		return false
	}
	if !strings.Contains(content, fmt.Sprintf(`"toolName": "%s"`, tool)) {
		return false
	}
	return strings.Contains(content, `"productVersion": "1.`) || strings.Contains(content, `"fileVersion": "1.`)
}

// escapeURIs escapes backslashes and quotes inside every "uri" value. Roslyn
// 1.x wrote one uri per line, so the value ends at the last quote on the line.
func escapeURIs(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		start := strings.Index(line, uriMarker)
		if start < 0 {
			continue
		}
		start += len(uriMarker)
		end := strings.LastIndex(line, `"`)
		if end < start {
			continue
		}
		value := line[start:end]
		value = strings.ReplaceAll(value, `\`, `\\`)
		value = strings.ReplaceAll(value, `"`, `\"`)
		lines[i] = line[:start] + value + line[end:]
	}
	return strings.Join(lines, "\n")
}
