package driven

import (
	"context"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// PackageActions is one package together with its parsed actions.
type PackageActions struct {
	Package   domain.PackageRef
	Publisher string
	Actions   []*domain.Action
}

// LocalIndex is the search index over locally installed packages.
// Backed by SQLite.
type LocalIndex interface {
	// Search returns a source yielding every local match for query.
	// Without a built index the source scans all actions and finishes
	// with domain.ErrSlowSearchUsed. A stale index makes the source fail
	// with a *domain.IndexCorruptedError.
	Search(ctx context.Context, query domain.Query) (RecordSource, error)

	// Contents returns the actions of packages whose names match any of
	// patterns, or of all packages when patterns is empty.
	Contents(ctx context.Context, patterns []string) ([]PackageActions, error)

	// Import stores a package and its actions.
	Import(ctx context.Context, pkg PackageActions) error

	// Rebuild regenerates the search tokens and the integrity hash.
	Rebuild(ctx context.Context) error

	// Close releases resources.
	Close() error
}
