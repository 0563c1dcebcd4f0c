// Package mcp provides an MCP (Model Context Protocol) server adapter for pkgsearch.
// It lets AI assistants run package searches and read package contents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
