package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LocalIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.LocalIndex.
// Until Rebuild is called, searches report the slow fallback.
type Index struct {
	mu    sync.RWMutex
	pkgs  []driven.PackageActions
	built bool
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{}
}

// Import stores a package, replacing an earlier import of the same FMRI.
func (i *Index) Import(_ context.Context, pkg driven.PackageActions) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for n := range i.pkgs {
		if i.pkgs[n].Package.String() == pkg.Package.String() {
			i.pkgs[n] = pkg
			return nil
		}
	}
	i.pkgs = append(i.pkgs, pkg)
	return nil
}

// Rebuild marks the index as built.
func (i *Index) Rebuild(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.built = true
	return nil
}

// Search matches every token of every stored action.
func (i *Index) Search(_ context.Context, q domain.Query) (driven.RecordSource, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var hits []domain.IndexHit
	for _, pa := range i.pkgs {
		for _, a := range pa.Actions {
			for _, tok := range domain.ActionTokens(a) {
				term, ok := q.MatchAny(tok.Value)
				if !ok {
					continue
				}
				hits = append(hits, domain.IndexHit{
					Package:   pa.Package,
					Publisher: pa.Publisher,
					Action:    a,
					Token:     tok,
					Term:      term,
				})
			}
		}
	}

	var end error
	if !i.built {
		end = domain.ErrSlowSearchUsed
	}
	return NewRecordSource("local", domain.HitRecords(q, hits), end), nil
}

// Contents returns packages whose names match any pattern.
func (i *Index) Contents(_ context.Context, patterns []string) ([]driven.PackageActions, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	q := domain.Query{Terms: patterns, CaseSensitive: true}
	var out []driven.PackageActions
	for _, pa := range i.pkgs {
		if len(patterns) > 0 {
			if _, ok := q.MatchAny(pa.Package.Name()); !ok {
				continue
			}
		}
		out = append(out, pa)
	}
	return out, nil
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}
