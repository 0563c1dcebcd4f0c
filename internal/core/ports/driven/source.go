package driven

import (
	"context"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

// RecordSource is one lazy producer of raw match records: the local index
// or one remote repository.
//
// Next blocks until a record is available. It returns io.EOF once the
// source is exhausted. Any other error ends the source; the pager decides
// whether the error is recoverable. A source must not be used after it
// has returned an error.
type RecordSource interface {
	// Name identifies the source in diagnostics and logs.
	Name() string

	// Next returns the next record.
	Next(ctx context.Context) (domain.RawRecord, error)

	// Close releases resources held by the source.
	Close() error
}
