package cli

import (
	"context"
	"log/slog"

	"github.com/scanbridge/scanbridge/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions holds the persistent flags and the logger built from them.
type rootOptions struct {
	verbose   bool
	logFormat string
	logger    *slog.Logger
}

func (o *rootOptions) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "scanbridge",
		Short: "Prepare MSBuild analysis results for the scanner",
		Long: "scanbridge reads the ProjectInfo.xml descriptors written during an MSBuild build, " +
			"aggregates them into sonar-project.properties and prepares incremental pull request analysis.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.Setup(cmd.ErrOrStderr(), opts.verbose, opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = l
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", logger.FormatText, "Log format (text, json)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newProjectsCmd(opts))
	cmd.AddCommand(newCacheCmd(opts))
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newMCPCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}

// ExecuteContext runs the root command; blocking commands observe ctx.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
