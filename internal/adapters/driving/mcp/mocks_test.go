package mcp

import (
	"context"
	"fmt"
	"io"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	out    string
	diag   string
	status domain.ExitStatus
	err    error

	gotQuery string
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
	out, diag io.Writer,
) (domain.ExitStatus, error) {
	m.gotQuery = query
	m.gotOpts = opts
	fmt.Fprint(out, m.out)
	fmt.Fprint(diag, m.diag)
	return m.status, m.err
}

// mockContentsService is a mock implementation of driving.ContentsService.
type mockContentsService struct {
	out string
	err error

	gotOpts domain.ContentsOptions
}

func (m *mockContentsService) List(_ context.Context, opts domain.ContentsOptions, out io.Writer) (bool, error) {
	m.gotOpts = opts
	if m.err != nil {
		return false, m.err
	}
	fmt.Fprint(out, m.out)
	return m.out != "", nil
}
