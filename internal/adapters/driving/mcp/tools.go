package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query         string   `json:"query" jsonschema:"the search query; wrap a term in <> to ask for packages"`
	Local         bool     `json:"local,omitempty" jsonschema:"search the local index"`
	Remote        bool     `json:"remote,omitempty" jsonschema:"search the configured repositories (default when local is unset)"`
	Columns       []string `json:"columns,omitempty" jsonschema:"output columns, e.g. action.name or search.match"`
	Packages      bool     `json:"packages,omitempty" jsonschema:"return matching packages instead of actions"`
	CaseSensitive bool     `json:"case_sensitive,omitempty" jsonschema:"match case exactly"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Lines       []string `json:"lines"`
	ExitStatus  int      `json:"exit_status"`
	Status      string   `json:"status"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search packages in the local index and remote repositories",
	}, s.handleSearch)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Local:         input.Local,
		Remote:        input.Remote,
		CaseSensitive: input.CaseSensitive,
		ReturnActions: !input.Packages,
		PruneVersions: true,
		Attributes:    input.Columns,
	}

	var out, diag bytes.Buffer
	status, err := s.ports.Search.Search(ctx, input.Query, opts, &out, &diag)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("search: %w", err)
	}

	return nil, SearchOutput{
		Lines:       splitLines(out.String()),
		ExitStatus:  int(status),
		Status:      status.String(),
		Diagnostics: splitLines(diag.String()),
	}, nil
}

// splitLines splits rendered output into lines, dropping the final newline.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
