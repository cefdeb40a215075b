package cli

import (
	"fmt"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/tui"
	"github.com/spf13/cobra"
)

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	var (
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects found in the build outputs",
		Long:  "Load and classify every project descriptor without writing anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			result, err := newPropertiesService(opts.log()).Preview(cfg)
			if err != nil {
				return fmt.Errorf("reading projects: %w", err)
			}

			if jsonOutput {
				return renderJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderStatuses(result.Statuses))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "Path to "+configFileName)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output projects as JSON")

	return cmd
}
