package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/history"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/tui"
	"github.com/scanbridge/scanbridge/internal/domain"
	"github.com/spf13/cobra"
)

var errNotGenerated = errors.New("analysis properties were not generated")

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		configPath  string
		jsonOutput  bool
		showHistory bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sonar-project.properties from the build outputs",
		Long: "Read every ProjectInfo.xml under the output directory, merge the descriptors of each project, " +
			"and write sonar-project.properties for the scanner.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.log()
			cfg, _, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			result, err := newPropertiesService(log).GenerateProperties(cfg)
			if err != nil {
				return fmt.Errorf("generating properties: %w", err)
			}

			// Record the run
			hist := history.New()
			if err := hist.Save(cfg.OutputDir, domain.NewHistoryEntry(result, time.Now())); err != nil {
				log.Warn("could not record the run history", "error", err)
			}

			switch {
			case showHistory:
				entries, err := hist.Load(cfg.OutputDir)
				if err != nil {
					return fmt.Errorf("loading history: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			case jsonOutput:
				if err := renderJSON(cmd, result); err != nil {
					return err
				}
			default:
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderResult(result))
			}

			if !result.Succeeded() {
				return errNotGenerated
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "Path to "+configFileName)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&showHistory, "history", false, "Show the generation history after this run")

	return cmd
}
