package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/config"
	"github.com/spf13/cobra"
)

const configFileName = config.FileName

const sampleConfig = `# scanbridge configuration
# BUILD_SOURCESDIRECTORY and SCANBRIDGE_* environment variables (also read
# from a .env file next to this one) are applied on top of this file.

project_key: %s
# project_name: My Solution
# project_version: "1.0"
# server_url: https://sonarqube.example.com

# Relative paths resolve against this file's directory.
# output_dir: ../out
# source_encoding: utf-8

# local_settings:
#   - key: sonar.exclusions
#     value: "**/Generated/**"

# pull_request:
#   base_branch: main
#   token_env: SONAR_TOKEN
#   cache_file: ../cache.bin
`

func newInitCmd() *cobra.Command {
	var (
		projectKey string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Generate a " + configFileName + " configuration file",
		Long:  "Create a commented " + configFileName + " in the given directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, configFileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
				}
			}

			if projectKey == "" {
				projectKey = filepath.Base(absPath)
			}

			if err := os.MkdirAll(absPath, 0o755); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			if err := os.WriteFile(dest, []byte(fmt.Sprintf(sampleConfig, projectKey)), 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectKey, "project-key", "", "Project key (defaults to the directory name)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing "+configFileName)

	return cmd
}
