package cli

import (
	mcpadapter "github.com/scanbridge/scanbridge/internal/adapters/inbound/mcp"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the scanbridge MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(opts))
	return cmd
}

func newMCPServeCmd(opts *rootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start scanbridge MCP server (stdio)",
		Long:  "Start the scanbridge MCP server using stdio transport. This allows AI coding assistants to generate analysis properties, list projects and reconcile the pull request cache.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := mcpadapter.NewServer(configPath, opts.log())
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "Path to "+configFileName)

	return cmd
}
