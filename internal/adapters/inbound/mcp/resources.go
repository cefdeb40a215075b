package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/config"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/history"
)

// registerResources registers all scanbridge MCP resources on the given server.
func registerResources(s *server.MCPServer, configPath string, logger *slog.Logger) {
	// 1. scanbridge://config - effective analysis configuration
	s.AddResource(
		mcplib.NewResource(
			"scanbridge://config",
			"Analysis Configuration",
			mcplib.WithResourceDescription("Effective configuration after the CI environment is applied"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(configPath),
	)

	// 2. scanbridge://history - past generation runs
	s.AddResource(
		mcplib.NewResource(
			"scanbridge://history",
			"Generation History",
			mcplib.WithResourceDescription("Outcome of the previous properties generation runs"),
			mcplib.WithMIMEType("application/json"),
		),
		handleHistoryResource(configPath),
	)

	// 3. scanbridge://projects/{id} - one project's classification (resource template)
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"scanbridge://projects/{id}",
			"Project",
			mcplib.WithTemplateDescription("Classification and file count of a single project"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		handleProjectResource(configPath, logger),
	)
}

func handleConfigResource(configPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := config.New().Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return jsonContents(request.Params.URI, cfg)
	}
}

func handleHistoryResource(configPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := config.New().Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		entries, err := history.New().Load(cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		return jsonContents(request.Params.URI, entries)
	}
}

func handleProjectResource(configPath string, logger *slog.Logger) server.ResourceTemplateHandlerFunc {
	return func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		id := templateArg(request.Params.Arguments, "id")
		if id == "" {
			return nil, fmt.Errorf("missing project id")
		}

		cfg, err := config.New().Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		propsSvc, _ := newServices(logger)
		result, err := propsSvc.Preview(cfg)
		if err != nil {
			return nil, fmt.Errorf("reading projects: %w", err)
		}

		for _, p := range result.Projects {
			if strings.EqualFold(p.ID, id) {
				return jsonContents(request.Params.URI, p)
			}
		}
		return nil, fmt.Errorf("project %q not found", id)
	}
}

// templateArg reads a URI template variable, which the server may hand over
// as a string or as a list of strings.
func templateArg(args map[string]any, name string) string {
	switch v := args[name].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
