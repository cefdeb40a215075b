// Package history keeps a bounded log of properties generation runs next to
// the analysis output they describe.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/scanbridge/scanbridge/internal/domain"
)

const (
	historyFile = ".scanbridge/history.json"
	// maxRuns bounds the log; the oldest runs are dropped first.
	maxRuns = 100
)

// FileHistory implements domain.RunHistory. The log lives under the
// analysis output directory so it is discarded together with a clean build.
type FileHistory struct{}

func New() *FileHistory {
	return &FileHistory{}
}

// Save appends a run to the log of outputDir. The file is replaced
// atomically so a concurrent reader never sees a partial log.
func (h *FileHistory) Save(outputDir string, entry domain.HistoryEntry) error {
	runs, err := h.Load(outputDir)
	if err != nil {
		return err
	}
	runs = append(runs, entry)
	if len(runs) > maxRuns {
		runs = runs[len(runs)-maxRuns:]
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run history: %w", err)
	}
	return replaceFile(filepath.Join(outputDir, historyFile), data)
}

// Load returns the recorded runs of outputDir, oldest first. A build that
// never generated properties has no log and yields no runs.
func (h *FileHistory) Load(outputDir string) ([]domain.HistoryEntry, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, historyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}

	var runs []domain.HistoryEntry
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", historyFile, err)
	}
	return runs, nil
}

func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "history-*.json")
	if err != nil {
		return fmt.Errorf("creating history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}
