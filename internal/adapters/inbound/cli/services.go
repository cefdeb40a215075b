package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/cache"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/classifier"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/config"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/contenthash"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/encoding"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/gitinfo"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/loader"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/sarif"
	"github.com/scanbridge/scanbridge/internal/application"
	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/spf13/cobra"
)

// defaultConfigPath is where the begin step leaves the configuration.
var defaultConfigPath = filepath.Join(".sonarqube", "conf", config.FileName)

func loadConfig(path string) (domain.AnalysisConfig, *config.YAMLLoader, error) {
	l := config.New()
	cfg, err := l.Load(path)
	if err != nil {
		return domain.AnalysisConfig{}, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, l, nil
}

func newPropertiesService(log *slog.Logger) *application.PropertiesService {
	return application.NewPropertiesService(
		loader.New(log),
		classifier.New(),
		sarif.New(log),
		encoding.New(),
		gitinfo.New(),
		log,
	)
}

func newCacheService(log *slog.Logger) *application.CacheService {
	return application.NewCacheService(contenthash.New(), cache.New(), log)
}

func renderJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
