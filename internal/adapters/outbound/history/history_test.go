package history_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/history"
	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entry := domain.HistoryEntry{
		Timestamp:      "2026-02-25T10:00:00Z",
		Revision:       "abc1234",
		PropertiesPath: filepath.Join(dir, "sonar-project.properties"),
		Statuses: map[string]domain.ProjectStatus{
			"11111111-1111-1111-1111-111111111111": domain.StatusValid,
		},
		AnalyzedFiles: 12,
		SharedFiles:   2,
	}

	err := h.Save(dir, entry)
	require.NoError(t, err)

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
}

func TestHistory_AppendMultiple(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	require.NoError(t, h.Save(dir, domain.HistoryEntry{Timestamp: "t1"}))
	require.NoError(t, h.Save(dir, domain.HistoryEntry{Timestamp: "t2"}))
	require.NoError(t, h.Save(dir, domain.HistoryEntry{Timestamp: "t3"}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "t1", entries[0].Timestamp)
	assert.Equal(t, "t3", entries[2].Timestamp)
}

func TestHistory_KeepsMostRecentRuns(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	for i := 0; i < 105; i++ {
		require.NoError(t, h.Save(dir, domain.HistoryEntry{Timestamp: fmt.Sprintf("t%d", i)}))
	}

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 100)
	assert.Equal(t, "t5", entries[0].Timestamp)
	assert.Equal(t, "t104", entries[99].Timestamp)
}

func TestHistory_LoadEmpty(t *testing.T) {
	entries, err := history.New().Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, ".scanbridge", "history.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0o755))
	require.NoError(t, os.WriteFile(fp, []byte("{not json"), 0o644))

	_, err := history.New().Load(dir)
	assert.Error(t, err)
}

func TestHistory_CreatesDirectory(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "deep", "nested")
	h := history.New()

	require.NoError(t, h.Save(nestedDir, domain.HistoryEntry{Timestamp: "t1"}))

	entries, err := h.Load(nestedDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistory_ReplacesFileWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	require.NoError(t, h.Save(dir, domain.HistoryEntry{Timestamp: "t1", SharedFiles: 1}))
	require.NoError(t, h.Save(dir, domain.HistoryEntry{Timestamp: "t2", SharedFiles: 3}))

	files, err := os.ReadDir(filepath.Join(dir, ".scanbridge"))
	require.NoError(t, err)
	require.Len(t, files, 1, "temporary files are cleaned up")
	assert.Equal(t, "history.json", files[0].Name())

	entries, err := h.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, []int{entries[0].SharedFiles, entries[1].SharedFiles})
}

func TestHistory_SaveRefusesCorruptLog(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, ".scanbridge", "history.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0o755))
	require.NoError(t, os.WriteFile(fp, []byte("[{"), 0o644))

	err := history.New().Save(dir, domain.HistoryEntry{Timestamp: "t1"})
	require.Error(t, err)

	data, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.Equal(t, "[{", string(data), "a corrupt log is left for inspection")
}
