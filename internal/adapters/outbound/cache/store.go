package cache

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Store is a file-based implementation of domain.UnchangedFilesStore. The
// list is plain UTF-8 text, one absolute path per line.
type Store struct{}

// New creates a new file-based unchanged-files store.
func New() *Store {
	return &Store{}
}

// Load reads the list back. Returns (nil, nil) if no list exists.
func (s *Store) Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no list is not an error
		}
		return nil, err
	}
	defer f.Close()

	var files []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			files = append(files, line)
		}
	}
	return files, sc.Err()
}

// Write stores the list, creating directories as needed.
func (s *Store) Write(path string, files []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var b strings.Builder
	for _, f := range files {
		b.WriteString(f)
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// Invalidate removes a list left over from a previous run.
func (s *Store) Invalidate(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
