package cli

import (
	"fmt"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/sonarcache"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/tui"
	"github.com/spf13/cobra"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	var (
		configPath   string
		cacheFile    string
		saveSnapshot string
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "List the files unchanged since the pull request base branch",
		Long: "Compare the server's analysis cache for the base branch with the local checkout " +
			"and write the list of unchanged files for incremental analysis.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, env, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			var token string
			if cfg.PullRequest.TokenEnv != "" {
				token = env.Getenv(cfg.PullRequest.TokenEnv)
			}
			source, err := sonarcache.SourceFor(cfg, cacheFile, token)
			if err != nil {
				return err
			}
			recorder := sonarcache.NewRecorder(source)

			result, err := newCacheService(opts.log()).ProcessPullRequest(cmd.Context(), cfg, recorder)
			if err != nil {
				return err
			}

			if saveSnapshot != "" {
				if err := sonarcache.NewFileSource(saveSnapshot).Save(recorder.Recorded()); err != nil {
					return fmt.Errorf("saving cache snapshot: %w", err)
				}
			}

			if jsonOutput {
				return renderJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderReconcile(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "Path to "+configFileName)
	cmd.Flags().StringVar(&cacheFile, "cache-file", "", "Read the cache from a snapshot file instead of the server")
	cmd.Flags().StringVar(&saveSnapshot, "save-snapshot", "", "Also save the fetched cache to this file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")

	return cmd
}
