package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Configuration keys read by the search service.
const (
	ConfigPageTimeoutMS = "search.page_timeout_ms"
	ConfigMaxTimeoutMS  = "search.max_timeout_ms"
	ConfigMinPageSize   = "search.min_page_size"
	ConfigRepositoryPfx = "repository."
)

// SearchService runs searches against the local index and remote
// repositories and renders the results page by page.
type SearchService struct {
	index  driven.LocalIndex
	repos  driven.RepositoryClient
	config driven.ConfigStore
	clock  driven.Clock
}

// NewSearchService creates a new search service.
// Any of index, repos and config may be nil.
func NewSearchService(
	index driven.LocalIndex,
	repos driven.RepositoryClient,
	config driven.ConfigStore,
) *SearchService {
	return &SearchService{
		index:  index,
		repos:  repos,
		config: config,
		clock:  driven.SystemClock{},
	}
}

// SetClock replaces the clock used for paging.
func (s *SearchService) SetClock(clock driven.Clock) {
	s.clock = clock
}

// Search renders matches for query to out and diagnostics to diag.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions, out, diag io.Writer,
) (domain.ExitStatus, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	if err := domain.ValidateAttributes(opts.Attributes, domain.SearchAttributes, domain.SearchPrefixes); err != nil {
		return domain.ExitBadOpt, err
	}

	q, err := domain.ParseQuery(query, opts.CaseSensitive, opts.ReturnActions)
	if err != nil {
		return domain.ExitOops, err
	}
	if q.ReturnType == domain.ReturnPackages {
		for _, a := range opts.Attributes {
			if domain.IsActionLevel(a) {
				return domain.ExitBadOpt, domain.ErrActionAttrsWithPackages
			}
		}
	}
	logger.Debug("Terms: %v, return type: %s", q.Terms, q.ReturnType)

	if !opts.Local && !opts.Remote {
		opts.Remote = true
	}

	var sources []driven.RecordSource
	if opts.Local {
		sources = append(sources, s.localSource(ctx, q))
	}
	if opts.Remote {
		remote, err := s.remoteSources(ctx, q, opts)
		if err != nil {
			closeSources(sources)
			return domain.ExitOops, err
		}
		sources = append(sources, remote...)
	}
	logger.Info("Searching %d sources", len(sources))

	var renderer PageRenderer
	if opts.JSON {
		renderer = NewJSONRenderer(out)
	} else {
		renderer = NewColumnFormatter(out, opts.DisplayHeaders)
	}

	outcome := NewOutcomeAggregator(diag)
	pager := NewAdaptivePager(s.pagerConfig(), s.clock, renderer, outcome, PagerOptions{
		Attributes: opts.Attributes,
		Projector:  ProjectorOptions{ShowAll: true, RemoveDuplicates: true},
	})

	if err := pager.Run(ctx, sources); err != nil {
		if errors.Is(err, domain.ErrActionAttrsWithPackages) {
			return domain.ExitBadOpt, err
		}
		return domain.ExitOops, fmt.Errorf("rendering results: %w", err)
	}

	status := outcome.Finish()
	logger.Info("Search finished: %s after %d pages", status, pager.Pages())
	return status, nil
}

// localSource opens the local index search. Failing to open becomes the
// source's first error so it is classified like any other.
func (s *SearchService) localSource(ctx context.Context, q domain.Query) driven.RecordSource {
	if s.index == nil {
		return &errorSource{name: "local", err: fmt.Errorf("%w: no local index", domain.ErrNotFound)}
	}
	src, err := s.index.Search(ctx, q)
	if err != nil {
		return &errorSource{name: "local", err: err}
	}
	return src
}

func (s *SearchService) remoteSources(
	ctx context.Context, q domain.Query, opts domain.SearchOptions,
) ([]driven.RecordSource, error) {
	repos := append([]domain.Repository(nil), opts.Servers...)
	if len(repos) == 0 {
		configured, err := s.configuredRepositories()
		if err != nil {
			return nil, err
		}
		repos = configured
	} else {
		for i := range repos {
			origin, err := domain.ParseOrigin(repos[i].Origin)
			if err != nil {
				return nil, err
			}
			repos[i].Origin = origin
		}
	}

	if len(repos) == 0 {
		logger.Warn("No repositories configured")
		return nil, nil
	}
	if s.repos == nil {
		return nil, fmt.Errorf("%w: remote search", domain.ErrNotImplemented)
	}
	return s.repos.Search(ctx, repos, driven.RemoteQuery{Query: q, PruneVersions: opts.PruneVersions}), nil
}

// configuredRepositories reads repository.<publisher> keys in sorted
// publisher order.
func (s *SearchService) configuredRepositories() ([]domain.Repository, error) {
	if s.config == nil {
		return nil, nil
	}
	var repos []domain.Repository
	for _, key := range s.config.Keys() {
		if !strings.HasPrefix(key, ConfigRepositoryPfx) {
			continue
		}
		origin, err := domain.ParseOrigin(s.config.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		repos = append(repos, domain.Repository{
			Publisher: strings.TrimPrefix(key, ConfigRepositoryPfx),
			Origin:    origin,
		})
	}
	return repos, nil
}

func (s *SearchService) pagerConfig() PagerConfig {
	cfg := DefaultPagerConfig()
	if s.config == nil {
		return cfg
	}
	if v := s.config.GetInt(ConfigPageTimeoutMS); v > 0 {
		cfg.PageTimeout = time.Duration(v) * time.Millisecond
	}
	if v := s.config.GetInt(ConfigMaxTimeoutMS); v > 0 {
		cfg.MaxTimeout = time.Duration(v) * time.Millisecond
	}
	if _, ok := s.config.Get(ConfigMinPageSize); ok {
		cfg.MinPageSize = s.config.GetInt(ConfigMinPageSize)
	}
	return cfg
}

func closeSources(sources []driven.RecordSource) {
	for _, src := range sources {
		_ = src.Close()
	}
}

// errorSource is a source that fails before producing anything.
type errorSource struct {
	name string
	err  error
}

func (e *errorSource) Name() string { return e.name }

func (e *errorSource) Next(context.Context) (domain.RawRecord, error) {
	return domain.RawRecord{}, e.err
}

func (e *errorSource) Close() error { return nil }
