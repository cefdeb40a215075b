package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/scanbridge/scanbridge/internal/adapters/outbound/cache"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/classifier"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/config"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/contenthash"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/encoding"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/gitinfo"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/loader"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/sarif"
	"github.com/scanbridge/scanbridge/internal/adapters/outbound/sonarcache"
	"github.com/scanbridge/scanbridge/internal/application"
	"github.com/scanbridge/scanbridge/internal/domain"
)

// registerTools registers all scanbridge MCP tools on the given server.
func registerTools(s *server.MCPServer, configPath string, logger *slog.Logger) {
	// 1. scanbridge_generate_properties
	s.AddTool(
		mcplib.NewTool("scanbridge_generate_properties",
			mcplib.WithDescription("Aggregates the ProjectInfo.xml descriptors and writes sonar-project.properties. Returns the classification of every project and the properties path as JSON"),
			mcplib.WithString("config", mcplib.Description("Path to scanbridge.yaml (defaults to the server's)")),
		),
		handleGenerate(configPath, logger),
	)

	// 2. scanbridge_list_projects
	s.AddTool(
		mcplib.NewTool("scanbridge_list_projects",
			mcplib.WithDescription("Classifies every project found in the build outputs without writing anything"),
			mcplib.WithString("config", mcplib.Description("Path to scanbridge.yaml (defaults to the server's)")),
		),
		handleListProjects(configPath, logger),
	)

	// 3. scanbridge_unchanged_files
	s.AddTool(
		mcplib.NewTool("scanbridge_unchanged_files",
			mcplib.WithDescription("Compares the pull request base branch analysis cache with the checkout and writes the list of unchanged files"),
			mcplib.WithString("config", mcplib.Description("Path to scanbridge.yaml (defaults to the server's)")),
			mcplib.WithString("cache_file", mcplib.Description("Read the cache from this snapshot file instead of the server")),
		),
		handleUnchangedFiles(configPath, logger),
	)
}

// newServices creates the standard set of outbound adapters and services.
func newServices(logger *slog.Logger) (*application.PropertiesService, *application.CacheService) {
	return application.NewPropertiesService(
			loader.New(logger),
			classifier.New(),
			sarif.New(logger),
			encoding.New(),
			gitinfo.New(),
			logger,
		),
		application.NewCacheService(contenthash.New(), cache.New(), logger)
}

// loadConfig reads the config named by the request's "config" argument,
// falling back to the server default.
func loadConfig(request mcplib.CallToolRequest, configPath string) (domain.AnalysisConfig, *config.YAMLLoader, error) {
	path := configPath
	if p, _ := request.GetArguments()["config"].(string); p != "" {
		path = p
	}
	l := config.New()
	cfg, err := l.Load(path)
	if err != nil {
		return domain.AnalysisConfig{}, nil, err
	}
	return cfg, l, nil
}

func handleGenerate(configPath string, logger *slog.Logger) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, _, err := loadConfig(request, configPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config failed: %v", err)), nil
		}

		propsSvc, _ := newServices(logger)
		result, err := propsSvc.GenerateProperties(cfg)
		if err != nil {
			return errorResult(fmt.Sprintf("generation failed: %v", err)), nil
		}

		res, err := jsonResult(result)
		if err != nil {
			return nil, err
		}
		res.IsError = !result.Succeeded()
		return res, nil
	}
}

func handleListProjects(configPath string, logger *slog.Logger) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, _, err := loadConfig(request, configPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config failed: %v", err)), nil
		}

		propsSvc, _ := newServices(logger)
		result, err := propsSvc.Preview(cfg)
		if err != nil {
			return errorResult(fmt.Sprintf("reading projects failed: %v", err)), nil
		}
		return jsonResult(result)
	}
}

func handleUnchangedFiles(configPath string, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, env, err := loadConfig(request, configPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config failed: %v", err)), nil
		}

		var token string
		if cfg.PullRequest.TokenEnv != "" {
			token = env.Getenv(cfg.PullRequest.TokenEnv)
		}
		cacheFile, _ := request.GetArguments()["cache_file"].(string)
		source, err := sonarcache.SourceFor(cfg, cacheFile, token)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		_, cacheSvc := newServices(logger)
		result, err := cacheSvc.ProcessPullRequest(ctx, cfg, source)
		if err != nil {
			return errorResult(fmt.Sprintf("reconciliation failed: %v", err)), nil
		}
		return jsonResult(result)
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
