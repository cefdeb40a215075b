package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/scanbridge/scanbridge/internal/domain"
	"golang.org/x/sync/errgroup"
)

// CacheService reconciles the server's pull request analysis cache with the
// local checkout and records the files unchanged since the base branch.
type CacheService struct {
	hasher  domain.ContentHasher
	store   domain.UnchangedFilesStore
	logger  *slog.Logger
	workers int
}

func NewCacheService(hasher domain.ContentHasher, store domain.UnchangedFilesStore, logger *slog.Logger) *CacheService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheService{
		hasher:  hasher,
		store:   store,
		logger:  logger,
		workers: runtime.NumCPU(),
	}
}

// ProcessPullRequest fetches the cache from source and writes the unchanged
// files list. The list from a previous run is always removed first, and a
// new one is only written when at least one file is unchanged.
func (s *CacheService) ProcessPullRequest(ctx context.Context, cfg domain.AnalysisConfig, source domain.CacheSource) (*domain.ReconcileResult, error) {
	listPath := cfg.UnchangedFilesPath()
	if err := s.store.Invalidate(listPath); err != nil {
		return nil, fmt.Errorf("removing stale unchanged files list: %w", err)
	}

	base := cfg.PullRequestCacheBasePath()
	if base == "" {
		s.logger.Warn("cannot determine the pull request cache base path, incremental analysis is disabled")
		return &domain.ReconcileResult{}, nil
	}

	entries, err := source.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching analysis cache: %w", err)
	}
	if len(entries) == 0 {
		s.logger.Info("the server has no analysis cache for the base branch", "branch", cfg.PullRequest.BaseBranch)
	}

	result, err := s.Reconcile(ctx, base, entries)
	if err != nil {
		return nil, err
	}
	if len(result.Unchanged) == 0 {
		return result, nil
	}

	if err := s.store.Write(listPath, result.Unchanged); err != nil {
		return nil, fmt.Errorf("writing unchanged files list: %w", err)
	}
	result.UnchangedFilesPath = listPath
	return result, nil
}

// Reconcile hashes the file behind every entry, relative to basePath, and
// keeps the absolute paths whose hash matches. Missing, unreadable and
// unmappable entries count as changed. The result follows entry order.
func (s *CacheService) Reconcile(ctx context.Context, basePath string, entries []domain.CacheEntry) (*domain.ReconcileResult, error) {
	base, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolving cache base path: %w", err)
	}

	slots := make([]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, ok := resolveCacheKey(base, entry.Key)
			if !ok {
				s.logger.Debug("cache key is not a usable relative path", "key", entry.Key)
				return nil
			}
			hash, err := s.hasher.Hash(path)
			if err != nil {
				return nil
			}
			if bytes.Equal(hash, entry.Hash) {
				slots[i] = path
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.ReconcileResult{BasePath: base, Total: len(entries)}
	for _, p := range slots {
		if p != "" {
			result.Unchanged = append(result.Unchanged, p)
		}
	}
	s.logger.Info(fmt.Sprintf("%d files out of %d are unchanged", len(result.Unchanged), len(entries)))
	return result, nil
}

// invalidKeyChars cannot appear in a path on every supported file system.
const invalidKeyChars = "\x00<>\"|?*"

// resolveCacheKey maps a server cache key onto a path below base. Keys that
// are absolute, malformed or climb out of base with ".." are rejected.
func resolveCacheKey(base, key string) (string, bool) {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, invalidKeyChars) {
		return "", false
	}
	native := filepath.FromSlash(key)
	if strings.HasPrefix(key, "/") || filepath.IsAbs(native) || filepath.VolumeName(native) != "" {
		return "", false
	}
	path := filepath.Join(base, native)
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}
