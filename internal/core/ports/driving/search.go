package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// SearchService runs a package search and renders its results.
type SearchService interface {
	// Search renders matches for query to out and diagnostics to diag.
	// The returned status classifies the run. A non-nil error means the
	// search could not start (bad options, invalid columns, bad query);
	// the status then says how the command should exit.
	Search(ctx context.Context, query string, opts domain.SearchOptions, out, diag io.Writer) (domain.ExitStatus, error)
}

// ContentsService lists the actions of local packages.
type ContentsService interface {
	// List renders the listing to out. It returns false when nothing
	// was printed.
	List(ctx context.Context, opts domain.ContentsOptions, out io.Writer) (bool, error)
}

// IndexService maintains the local search index.
type IndexService interface {
	// Import reads a package manifest and adds it to the index.
	Import(ctx context.Context, manifest io.Reader) (domain.PackageRef, error)

	// Rebuild regenerates the search index.
	Rebuild(ctx context.Context) error
}
