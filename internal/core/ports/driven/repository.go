package driven

import (
	"context"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// RemoteQuery is a query addressed to remote repositories.
type RemoteQuery struct {
	Query         domain.Query
	PruneVersions bool
}

// RepositoryClient queries remote package repositories.
type RepositoryClient interface {
	// Search returns one source per repository, in the order given.
	// Failures surface from the matching source's Next as a
	// *domain.ServerError.
	Search(ctx context.Context, repos []domain.Repository, query RemoteQuery) []RecordSource
}
