// Package mcp implements the MCP server using the official SDK.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/abdul-hamid-achik/masthead/internal/cms"
	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/logging"
	"github.com/abdul-hamid-achik/masthead/internal/overview"
	"github.com/abdul-hamid-achik/masthead/internal/query"
	"github.com/abdul-hamid-achik/masthead/internal/version"
)

// Input types for tools

// SearchInput is the input for masthead_search.
type SearchInput struct {
	Query string `json:"query" jsonschema:"Text matched against item titles and author names."`
}

// SectionInput is the input for masthead_section.
type SectionInput struct {
	Section string `json:"section" jsonschema:"One of Art, Fiction, Features, Poetry."`
}

// OverviewInput is the input for masthead_overview (empty).
type OverviewInput struct{}

// Server wraps the official MCP SDK server.
type Server struct {
	server *sdkmcp.Server
	log    zerolog.Logger

	mu      sync.RWMutex
	fetcher cms.Fetcher
}

// ServerConfig contains configuration for the MCP server.
type ServerConfig struct {
	Fetcher cms.Fetcher
	Logger  zerolog.Logger
}

// NewServer creates a new MCP server using the official SDK.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		fetcher: cfg.Fetcher,
		log:     logging.Component(cfg.Logger, "mcp"),
	}

	s.server = sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "masthead",
		Version: version.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: "masthead reads the magazine's published content. " +
			"Use masthead_overview for the latest items in every section, " +
			"masthead_section for one section, and masthead_search to find items by title or author.",
	})

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "masthead_search",
		Description: "Search published items by title or author name. Returns at most three items, newest first.",
	}, s.handleSearch)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "masthead_section",
		Description: "List the latest published items of one section (Art, Fiction, Features or Poetry).",
	}, s.handleSection)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "masthead_overview",
		Description: "List the latest published items of every section.",
	}, s.handleOverview)

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}

// SDK returns the underlying SDK server.
func (s *Server) SDK() *sdkmcp.Server {
	return s.server
}

// Reconfigure swaps the content source for subsequent tool calls.
func (s *Server) Reconfigure(fetcher cms.Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher = fetcher
}

func (s *Server) currentFetcher() cms.Fetcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetcher
}

// handleSearch handles the masthead_search tool.
func (s *Server) handleSearch(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query parameter is required"), nil, nil
	}

	items, err := s.currentFetcher().Fetch(ctx, query.BuildSearch(input.Query))
	if err != nil {
		s.log.Error().Err(err).Str("query", input.Query).Msg("search fetch failed")
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}
	items = capItems(items)

	if len(items) == 0 {
		return textResult(NoResultsText), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d results for %q:\n\n", len(items), input.Query)
	writeItems(&sb, items)
	return textResult(sb.String()), nil, nil
}

// handleSection handles the masthead_section tool.
func (s *Server) handleSection(ctx context.Context, req *sdkmcp.CallToolRequest, input SectionInput) (*sdkmcp.CallToolResult, any, error) {
	section, err := content.ParseSection(input.Section)
	if err != nil {
		return errorResult(fmt.Sprintf("%v. Valid sections: %s", err, sectionNames())), nil, nil
	}

	items, err := s.currentFetcher().Fetch(ctx, query.BuildSection(section))
	if err != nil {
		s.log.Error().Err(err).Str("section", section.String()).Msg("section fetch failed")
		return errorResult(fmt.Sprintf("Fetch error: %v", err)), nil, nil
	}

	var sb strings.Builder
	writeSection(&sb, section, overview.Results{Items: capItems(items), Loaded: true})
	return textResult(sb.String()), nil, nil
}

// handleOverview handles the masthead_overview tool. A section that fails to
// load is reported as unavailable and the others are still listed.
func (s *Server) handleOverview(ctx context.Context, req *sdkmcp.CallToolRequest, input OverviewInput) (*sdkmcp.CallToolResult, any, error) {
	c := overview.New(s.currentFetcher(), overview.WithLogger(s.log))
	defer c.Unmount()
	c.Mount(ctx)
	c.Wait()

	var sb strings.Builder
	for i, sv := range c.View().Sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeSection(&sb, sv.Section, sv.Results)
	}
	return textResult(sb.String()), nil, nil
}

func capItems(items []content.Item) []content.Item {
	if len(items) > query.Limit {
		return items[:query.Limit]
	}
	return items
}

func sectionNames() string {
	names := make([]string, 0, len(content.All()))
	for _, s := range content.All() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
		IsError: true,
	}
}
