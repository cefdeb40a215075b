package loader

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/scanbridge/scanbridge/internal/domain"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// descriptor mirrors ProjectInfo.xml. Element names carry no namespace so
// any version of the integration namespace is accepted.
type descriptor struct {
	XMLName         xml.Name `xml:"ProjectInfo"`
	ProjectName     string   `xml:"ProjectName"`
	ProjectLanguage string   `xml:"ProjectLanguage"`
	ProjectType     string   `xml:"ProjectType"`
	ProjectGUID     string   `xml:"ProjectGuid"`
	ProjectVersion  string   `xml:"ProjectVersion"`
	FullPath        string   `xml:"FullPath"`
	IsExcluded      bool     `xml:"IsExcluded"`
	Encoding        string   `xml:"Encoding"`
	AnalysisResults []struct {
		ID       string `xml:"Id,attr"`
		Location string `xml:"Location,attr"`
	} `xml:"AnalysisResults>AnalysisResult"`
	AnalysisSettings []struct {
		Name  string `xml:"Name,attr"`
		Value string `xml:",chardata"`
	} `xml:"AnalysisSettings>Property"`
}

// DescriptorLoader implements domain.ProjectLoader for an MSBuild output root
// holding one sub-folder per project.
type DescriptorLoader struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *DescriptorLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DescriptorLoader{logger: logger}
}

// LoadAll reads the descriptor of every immediate sub-directory of rootDir.
// Sub-directories without a descriptor are skipped. A missing rootDir yields
// no records.
func (l *DescriptorLoader) LoadAll(rootDir string) ([]domain.ProjectRecord, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading output root %s: %w", rootDir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var records []domain.ProjectRecord
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(rootDir, e.Name(), domain.DescriptorFileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		rec, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load reads a single descriptor file.
func (l *DescriptorLoader) Load(path string) (domain.ProjectRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ProjectRecord{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var d descriptor
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&d); err != nil {
		return domain.ProjectRecord{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	rec := domain.ProjectRecord{
		Name:           strings.TrimSpace(d.ProjectName),
		Version:        strings.TrimSpace(d.ProjectVersion),
		Language:       domain.Language(strings.TrimSpace(d.ProjectLanguage)),
		Type:           domain.ParseProjectType(d.ProjectType),
		Encoding:       strings.TrimSpace(d.Encoding),
		FullPath:       strings.TrimSpace(d.FullPath),
		DescriptorPath: path,
		IsExcluded:     d.IsExcluded,
	}
	// An unparsable guid is treated like a missing one.
	if id, err := uuid.Parse(strings.TrimSpace(d.ProjectGUID)); err == nil {
		rec.ID = id
	}
	for _, ar := range d.AnalysisResults {
		rec.AnalysisResults = append(rec.AnalysisResults, domain.AnalysisResult{ID: ar.ID, Location: ar.Location})
	}
	for _, s := range d.AnalysisSettings {
		rec.Settings = append(rec.Settings, domain.Setting{Key: s.Name, Value: s.Value})
	}

	if loc, ok := rec.AnalysisResultLocation(domain.AnalysisResultFilesToAnalyze); ok {
		files, err := readFileList(loc, rec.Directory())
		if err != nil {
			l.logger.Warn("cannot read the list of files to analyze",
				"project", rec.Name, "path", loc, "error", err)
		}
		rec.AnalysisFiles = files
	}
	return rec, nil
}

// readFileList reads one path per line, skipping blank lines. Relative paths
// are resolved against baseDir.
func readFileList(path, baseDir string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var files []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), string(utf8BOM)))
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(baseDir, line)
		}
		files = append(files, line)
	}
	return files, sc.Err()
}

// charsetReader lets descriptors declare any encoding x/text knows about.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported descriptor encoding %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
