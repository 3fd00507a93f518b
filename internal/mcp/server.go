// Package mcp exposes the analysis operations over the Model Context
// Protocol on stdio. Debug output is suppressed in this mode so nothing but
// protocol frames reach stdout.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codescope/codescope/internal/analyzer"
	"github.com/codescope/codescope/internal/debug"
	"github.com/codescope/codescope/internal/types"
)

// ServerVersion is reported in the MCP handshake.
const ServerVersion = "0.2.0"

// Server wires the ProjectAnalyzer to MCP tool handlers.
type Server struct {
	server   *mcp.Server
	analyzer *analyzer.ProjectAnalyzer
}

// NewServer creates the MCP server and registers all tools.
func NewServer(pa *analyzer.ProjectAnalyzer) *Server {
	debug.SetMCPMode(true)

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "codescope-mcp-server",
			Version: ServerVersion,
		}, nil),
		analyzer: pa,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	defer s.analyzer.StopAllWatchers()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_project",
		Description: "Analyze a project tree: per-file structure, metrics, dependency graph and architecture patterns. Results are cached per path and config.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Project root directory",
				},
				"include_tests": {
					Type:        "boolean",
					Description: "Include test files and test directories (default false)",
				},
				"depth": {
					Type:        "string",
					Description: "Analysis depth: basic, medium or deep (default medium)",
				},
				"languages": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Restrict to these languages or extensions (e.g. [\"python\", \"ts\"])",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleAnalyzeProject)

	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_file",
		Description: "Analyze a single file: size, lines, functions, imports, exports, TODO annotations and complexity.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "File path",
				},
				"depth": {
					Type:        "string",
					Description: "Analysis depth: basic, medium or deep (default deep)",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleAnalyzeFile)

	s.server.AddTool(&mcp.Tool{
		Name:        "resolve_imports",
		Description: "Resolve a file's import specifiers to files under the project root. Unresolvable specifiers come back without a resolved path.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Project root directory",
				},
				"file": {
					Type:        "string",
					Description: "File whose imports to resolve",
				},
			},
			Required: []string{"path", "file"},
		},
	}, s.handleResolveImports)

	s.server.AddTool(&mcp.Tool{
		Name:        "quick_stats",
		Description: "Fast bounded-sample summary of a project: file count, languages and estimated size.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Project root directory",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleQuickStats)

	s.server.AddTool(&mcp.Tool{
		Name:        "clear_cache",
		Description: "Drop cached analyses. With a path only that project's entries are removed; without one the whole cache is emptied.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Project root to invalidate (optional)",
				},
			},
		},
	}, s.handleClearCache)
}

type analyzeProjectParams struct {
	Path         string   `json:"path"`
	IncludeTests bool     `json:"include_tests"`
	Depth        string   `json:"depth"`
	Languages    []string `json:"languages"`
}

func (s *Server) handleAnalyzeProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params analyzeProjectParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse(fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Path == "" {
		return errorResponse(fmt.Errorf("path is required"))
	}

	cfg := types.DefaultAnalysisConfig()
	cfg.IncludeTests = params.IncludeTests
	cfg.Depth = types.ParseDepth(params.Depth)
	cfg.Languages = params.Languages

	analysis, err := s.analyzer.Analyze(ctx, params.Path, cfg)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(analysis)
}

type analyzeFileParams struct {
	Path  string `json:"path"`
	Depth string `json:"depth"`
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params analyzeFileParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse(fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Path == "" {
		return errorResponse(fmt.Errorf("path is required"))
	}

	depth := types.DepthDeep
	if params.Depth != "" {
		depth = types.ParseDepth(params.Depth)
	}

	record, err := s.analyzer.AnalyzeFile(ctx, params.Path, depth)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(record)
}

type resolveImportsParams struct {
	Path string `json:"path"`
	File string `json:"file"`
}

func (s *Server) handleResolveImports(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params resolveImportsParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse(fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Path == "" || params.File == "" {
		return errorResponse(fmt.Errorf("path and file are required"))
	}

	bindings, err := s.analyzer.ResolveImports(ctx, params.Path, params.File)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(bindings)
}

type pathParams struct {
	Path string `json:"path"`
}

func (s *Server) handleQuickStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params pathParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse(fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Path == "" {
		return errorResponse(fmt.Errorf("path is required"))
	}

	stats, err := s.analyzer.QuickStats(ctx, params.Path)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(stats)
}

func (s *Server) handleClearCache(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params pathParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResponse(fmt.Errorf("invalid parameters: %w", err))
	}

	cleared := s.analyzer.ClearCache(params.Path)
	return jsonResponse(map[string]any{
		"cleared": cleared,
		"stats":   s.analyzer.CacheStats(),
	})
}
