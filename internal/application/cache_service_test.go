package application_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/cache"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/contenthash"
	"github.com/scanbridge/scanbridge/internal/application"
	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	entries []domain.CacheEntry
	err     error
}

func (s staticSource) Entries(context.Context) ([]domain.CacheEntry, error) { return s.entries, s.err }

func sum(t *testing.T, content string) []byte {
	t.Helper()
	h, err := contenthash.Sum([]byte(content))
	require.NoError(t, err)
	return h
}

func newCacheService() (*application.CacheService, func() string) {
	logger, buf := bufferLogger()
	return application.NewCacheService(contenthash.New(), cache.New(), logger), buf.String
}

// Scenario D: one file deleted, one changed, one unchanged.
func TestProcessPullRequest_OnlyUnchangedFilesAreListed(t *testing.T) {
	f := newBuildFixture(t)
	f.source(t, "App/Changed.cs", "class Changed { int x; }")
	unchanged := f.source(t, "App/Same.cs", "class Same {}")
	cfg := f.config()
	cfg.SourcesDirectory = f.root

	source := staticSource{entries: []domain.CacheEntry{
		{Key: "src/App/Deleted.cs", Hash: sum(t, "class Deleted {}")},
		{Key: "src/App/Changed.cs", Hash: sum(t, "class Changed {}")},
		{Key: "src/App/Same.cs", Hash: sum(t, "class Same {}")},
	}}
	svc, logs := newCacheService()

	result, err := svc.ProcessPullRequest(context.Background(), cfg, source)
	require.NoError(t, err)

	assert.Equal(t, []string{unchanged}, result.Unchanged)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, cfg.UnchangedFilesPath(), result.UnchangedFilesPath)
	assert.Contains(t, logs(), "1 files out of 3 are unchanged")

	data, err := os.ReadFile(cfg.UnchangedFilesPath())
	require.NoError(t, err)
	assert.Equal(t, unchanged+"\n", string(data))
}

func TestProcessPullRequest_NothingUnchangedWritesNoList(t *testing.T) {
	f := newBuildFixture(t)
	f.source(t, "a.cs", "new content")
	cfg := f.config()
	cfg.SourcesDirectory = filepath.Join(f.root, "src")
	require.NoError(t, os.WriteFile(cfg.UnchangedFilesPath(), []byte("/stale\n"), 0o644))

	svc, logs := newCacheService()
	result, err := svc.ProcessPullRequest(context.Background(), cfg, staticSource{entries: []domain.CacheEntry{
		{Key: "a.cs", Hash: sum(t, "old content")},
	}})

	require.NoError(t, err)
	assert.Empty(t, result.Unchanged)
	assert.Empty(t, result.UnchangedFilesPath)
	assert.NoFileExists(t, cfg.UnchangedFilesPath(), "a stale list is removed")
	assert.Contains(t, logs(), "0 files out of 1 are unchanged")
}

func TestProcessPullRequest_EmptyCache(t *testing.T) {
	f := newBuildFixture(t)
	cfg := f.config()

	svc, logs := newCacheService()
	result, err := svc.ProcessPullRequest(context.Background(), cfg, staticSource{})

	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.NoFileExists(t, cfg.UnchangedFilesPath())
	assert.Contains(t, logs(), "0 files out of 0 are unchanged")
}

func TestProcessPullRequest_NoBasePath(t *testing.T) {
	f := newBuildFixture(t)
	cfg := f.config()
	cfg.ScannerWorkingDirectory = ""

	svc, logs := newCacheService()
	result, err := svc.ProcessPullRequest(context.Background(), cfg, staticSource{err: errors.New("must not be called")})

	require.NoError(t, err)
	assert.Empty(t, result.Unchanged)
	assert.Contains(t, logs(), "cannot determine the pull request cache base path")
}

func TestProcessPullRequest_SourceError(t *testing.T) {
	f := newBuildFixture(t)
	svc, _ := newCacheService()

	_, err := svc.ProcessPullRequest(context.Background(), f.config(), staticSource{err: errors.New("boom")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching analysis cache")
}

func TestProcessPullRequest_BasePathPrecedence(t *testing.T) {
	f := newBuildFixture(t)
	explicit := filepath.Join(f.root, "src")
	same := f.source(t, "x.cs", "x")
	cfg := f.config()
	cfg.LocalSettings = []domain.Setting{{Key: "sonar.projectBaseDir", Value: explicit}}
	cfg.SourcesDirectory = filepath.Join(f.root, "elsewhere")

	svc, _ := newCacheService()
	result, err := svc.ProcessPullRequest(context.Background(), cfg, staticSource{entries: []domain.CacheEntry{
		{Key: "x.cs", Hash: sum(t, "x")},
	}})

	require.NoError(t, err)
	assert.Equal(t, explicit, result.BasePath)
	assert.Equal(t, []string{same}, result.Unchanged)
}

func TestReconcile_UnusableKeysAreChanged(t *testing.T) {
	f := newBuildFixture(t)
	f.source(t, "ok.cs", "ok")
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "secret.txt"), []byte("ok"), 0o644))
	base := filepath.Join(f.root, "src")

	svc, _ := newCacheService()
	result, err := svc.Reconcile(context.Background(), base, []domain.CacheEntry{
		{Key: "", Hash: sum(t, "ok")},
		{Key: "bad\x00name.cs", Hash: sum(t, "ok")},
		{Key: "what?.cs", Hash: sum(t, "ok")},
		{Key: "/abs/ok.cs", Hash: sum(t, "ok")},
		{Key: ".", Hash: sum(t, "ok")},
		{Key: "../secret.txt", Hash: sum(t, "ok")},
		{Key: "sub/../../secret.txt", Hash: sum(t, "ok")},
		{Key: "..", Hash: sum(t, "ok")},
		{Key: "ok.cs", Hash: sum(t, "ok")},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(base, "ok.cs")}, result.Unchanged, "keys escaping the base path are changed")
	assert.Equal(t, 9, result.Total)
}

func TestReconcile_OrderFollowsEntriesAndIsStable(t *testing.T) {
	f := newBuildFixture(t)
	base := filepath.Join(f.root, "src")
	var entries []domain.CacheEntry
	var want []string
	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("f%02d.cs", i)
		path := f.source(t, name, name)
		entries = append(entries, domain.CacheEntry{Key: name, Hash: sum(t, name)})
		want = append(want, path)
	}

	svc, _ := newCacheService()
	for i := 0; i < 3; i++ {
		result, err := svc.Reconcile(context.Background(), base, entries)
		require.NoError(t, err)
		assert.Equal(t, want, result.Unchanged)
	}
}

func TestReconcile_CancelledContext(t *testing.T) {
	f := newBuildFixture(t)
	f.source(t, "a.cs", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, _ := newCacheService()
	_, err := svc.Reconcile(ctx, filepath.Join(f.root, "src"), []domain.CacheEntry{{Key: "a.cs", Hash: sum(t, "a")}})
	assert.ErrorIs(t, err, context.Canceled)
}
