package sonarcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scanbridge/scanbridge/internal/domain"
)

const cachePath = "/api/analysis_cache/get"

// HTTPSource implements domain.CacheSource against the server web API.
type HTTPSource struct {
	client     *http.Client
	serverURL  string
	projectKey string
	branch     string
	token      string
}

// NewHTTPSource creates a source for the cache of projectKey on branch.
// token may be empty. A nil client gets a 60 second timeout.
func NewHTTPSource(client *http.Client, serverURL, projectKey, branch, token string) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPSource{
		client:     client,
		serverURL:  strings.TrimRight(serverURL, "/"),
		projectKey: projectKey,
		branch:     branch,
		token:      token,
	}
}

// Entries downloads the cache. A server without a cache for the branch
// answers 404, which yields no entries.
func (s *HTTPSource) Entries(ctx context.Context) ([]domain.CacheEntry, error) {
	q := url.Values{}
	q.Set("project", s.projectKey)
	if s.branch != "" {
		q.Set("branch", s.branch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serverURL+cachePath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building cache request: %w", err)
	}
	// Set explicitly so the transport hands back the raw stream and Decode
	// does the decompression.
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "application/octet-stream")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading analysis cache: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("downloading analysis cache: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return Decode(resp.Body)
}

// FileSource implements domain.CacheSource over a snapshot saved on disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Entries(_ context.Context) ([]domain.CacheEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cache snapshot %s does not exist", s.path)
		}
		return nil, fmt.Errorf("opening cache snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Save writes entries to the snapshot file, gzip-compressed, creating
// directories as needed.
func (s *FileSource) Save(entries []domain.CacheEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, entries, true); err != nil {
		return err
	}
	return os.WriteFile(s.path, buf.Bytes(), 0o644)
}

// ErrNoSource is returned by SourceFor when neither a snapshot nor a server
// is configured.
var ErrNoSource = errors.New("no analysis cache source: set server_url or pull_request.cache_file")

// SourceFor picks the cache source for cfg. A snapshot path wins over the
// configuration's cache file, which wins over the server.
func SourceFor(cfg domain.AnalysisConfig, snapshot, token string) (domain.CacheSource, error) {
	if path := domain.FirstNonBlank(snapshot, cfg.PullRequest.CacheFile); path != "" {
		return NewFileSource(path), nil
	}
	if cfg.ServerURL == "" {
		return nil, ErrNoSource
	}
	if strings.TrimSpace(cfg.PullRequest.BaseBranch) == "" {
		return nil, errors.New("pull_request.base_branch is required to download the analysis cache")
	}
	return NewHTTPSource(nil, cfg.ServerURL, cfg.ProjectKey, cfg.PullRequest.BaseBranch, token), nil
}

// Recorder wraps a source and keeps the last entries it returned.
type Recorder struct {
	source  domain.CacheSource
	entries []domain.CacheEntry
}

func NewRecorder(source domain.CacheSource) *Recorder {
	return &Recorder{source: source}
}

func (r *Recorder) Entries(ctx context.Context) ([]domain.CacheEntry, error) {
	entries, err := r.source.Entries(ctx)
	if err != nil {
		return nil, err
	}
	r.entries = entries
	return entries, nil
}

// Recorded returns the entries seen by the last successful call.
func (r *Recorder) Recorded() []domain.CacheEntry {
	return r.entries
}
