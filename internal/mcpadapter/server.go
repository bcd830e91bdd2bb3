// Package mcpadapter exposes the query coordinator's hybrid search as a
// single tool over the Model Context Protocol, so external AI agents can
// call into the same index the IPC surface serves (spec.md §1's
// "external tool adapter"). Grounded on internal/mcp/server.go's
// tool-registration pattern, narrowed from the teacher's four
// project-aware tools (search/search_code/search_docs/index_status) to
// the single hybrid search operation spec.md §4.J defines.
package mcpadapter

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kestr-dev/kestr/internal/query"
	"github.com/kestr-dev/kestr/pkg/version"
)

// Server bridges an MCP client to a query.Coordinator.
type Server struct {
	mcp         *mcp.Server
	coordinator *query.Coordinator
}

// SearchInput is the tool's input schema.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to execute"`
}

// SearchOutput is the tool's output schema.
type SearchOutput struct {
	Results []query.Result `json:"results" jsonschema:"list of search results"`
}

// NewServer constructs an MCP server wrapping c and registers the search
// tool.
func NewServer(c *query.Coordinator) *Server {
	s := &Server{
		coordinator: c,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "kestr",
			Version: version.Version,
		}, nil),
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid semantic and keyword search over the indexed codebase.",
	}, s.searchHandler)

	return s
}

func (s *Server) searchHandler(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	results, err := s.coordinator.Query(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Results: results}, nil
}

// Serve runs the MCP server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		slog.Error("mcpadapter: server stopped with error", "error", err)
		return err
	}
	return nil
}
