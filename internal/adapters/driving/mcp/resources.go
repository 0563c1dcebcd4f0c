package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for pkgsearch resources.
	uriScheme = "pkgsearch://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the searchable columns.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "attributes",
		Name:        "attributes",
		Description: "Output columns accepted by the search tool",
		MIMEType:    "application/json",
	}, s.handleAttributesResource)

	// Template for package contents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "packages/{name}/contents",
		Name:        "package-contents",
		Description: "Paths delivered by a locally indexed package",
		MIMEType:    "text/plain",
	}, s.handleContentsResource)
}

// handleAttributesResource lists the search columns and reserved prefixes.
func (s *Server) handleAttributesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info := struct {
		Attributes []string `json:"attributes"`
		Prefixes   []string `json:"prefixes"`
	}{
		Attributes: domain.SearchAttributes,
		Prefixes:   domain.SearchPrefixes,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling attributes: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleContentsResource returns the paths of one package.
func (s *Server) handleContentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Contents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract the name from URI: pkgsearch://packages/{name}/contents
	name := extractPackageName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	var out bytes.Buffer
	printed, err := s.ports.Contents.List(ctx, domain.ContentsOptions{Packages: []string{name}}, &out)
	if err != nil {
		return nil, fmt.Errorf("listing contents: %w", err)
	}
	if !printed {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     out.String(),
		}},
	}, nil
}

// extractPackageName extracts the package name from a URI like
// pkgsearch://packages/{name}/contents. Names may contain slashes.
func extractPackageName(uri string) string {
	const prefix = uriScheme + "packages/"
	const suffix = "/contents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
