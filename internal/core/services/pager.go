package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// PagerConfig controls how long records are collected before a page is
// emitted.
type PagerConfig struct {
	// PageTimeout is the initial collection window.
	PageTimeout time.Duration
	// MaxTimeout caps the window after it has been doubled.
	MaxTimeout time.Duration
	// MinPageSize is the batch size a page must exceed to be emitted early.
	MinPageSize int
}

// DefaultPagerConfig returns the standard paging parameters.
func DefaultPagerConfig() PagerConfig {
	return PagerConfig{
		PageTimeout: 500 * time.Millisecond,
		MaxTimeout:  5 * time.Second,
		MinPageSize: 5,
	}
}

func (c PagerConfig) withDefaults() PagerConfig {
	d := DefaultPagerConfig()
	if c.PageTimeout <= 0 {
		c.PageTimeout = d.PageTimeout
	}
	if c.MaxTimeout < c.PageTimeout {
		c.MaxTimeout = max(d.MaxTimeout, c.PageTimeout)
	}
	if c.MinPageSize < 0 {
		c.MinPageSize = d.MinPageSize
	}
	return c
}

// PagerOptions selects the columns and line filters for a run.
type PagerOptions struct {
	// Attributes are the requested columns. When empty, defaults are
	// chosen from the return type of the first record.
	Attributes []string
	Projector  ProjectorOptions
}

// pagerState is everything that changes while a search is paged.
type pagerState struct {
	timeout time.Duration
	start   time.Time
	started bool
	batch   []domain.NormalizedRecord
	last    domain.Line
	pages   int
}

// AdaptivePager consumes record sources in order and emits pages of
// output. A page is cut once the collection window has elapsed and the
// batch exceeds the minimum page size; a small batch instead doubles the
// window up to the maximum. Pages never change the rendered output, only
// when it appears.
type AdaptivePager struct {
	cfg      PagerConfig
	clock    driven.Clock
	renderer PageRenderer
	outcome  *OutcomeAggregator
	opts     PagerOptions

	projector *Projector
	state     pagerState
}

// NewAdaptivePager creates a pager. A nil clock uses the system clock.
func NewAdaptivePager(
	cfg PagerConfig,
	clock driven.Clock,
	renderer PageRenderer,
	outcome *OutcomeAggregator,
	opts PagerOptions,
) *AdaptivePager {
	if clock == nil {
		clock = driven.SystemClock{}
	}
	return &AdaptivePager{
		cfg:      cfg.withDefaults(),
		clock:    clock,
		renderer: renderer,
		outcome:  outcome,
		opts:     opts,
	}
}

// Pages returns the number of non-empty pages rendered so far.
func (p *AdaptivePager) Pages() int {
	return p.state.pages
}

// Timeout returns the current collection window.
func (p *AdaptivePager) Timeout() time.Duration {
	return p.state.timeout
}

// Run drains sources in order, closing each one. Errors ending a source
// are filed with the outcome aggregator; a fatal one stops the run after
// the collected records are flushed. The returned error is reserved for
// usage problems and render failures.
func (p *AdaptivePager) Run(ctx context.Context, sources []driven.RecordSource) error {
	logger.Section("Paging")
	p.state = pagerState{timeout: p.cfg.PageTimeout}

	for i, src := range sources {
		err := p.drain(ctx, src)
		if closeErr := src.Close(); closeErr != nil {
			logger.Warn("closing source %s: %v", src.Name(), closeErr)
		}
		var stop *stopError
		if errors.As(err, &stop) {
			closeSources(sources[i+1:])
			return stop.err
		}
		if err != nil && p.outcome.SourceFailed(src.Name(), err) {
			logger.Debug("Deferring fatal error until the batch is flushed")
			closeSources(sources[i+1:])
			break
		}
	}
	return p.flush()
}

// stopError ends the run without flushing.
type stopError struct {
	err error
}

func (e *stopError) Error() string {
	return e.err.Error()
}

// drain reads one source to exhaustion and returns the error that ended
// it, or a *stopError when the run cannot continue.
func (p *AdaptivePager) drain(ctx context.Context, src driven.RecordSource) error {
	logger.Debug("Reading source %s", src.Name())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if !p.state.started {
			p.state.start = p.clock.Now()
			p.state.started = true
		}

		rec, err := ClassifyRecord(raw)
		var malformed *domain.MalformedResultError
		if errors.As(err, &malformed) {
			malformed.Source = src.Name()
			p.outcome.RecordRejected(src.Name(), err)
			continue
		}

		if colErr := p.resolveColumns(raw.ReturnType); colErr != nil {
			return &stopError{err: colErr}
		}

		if err != nil {
			p.outcome.RecordRejected(src.Name(), err)
		} else {
			p.outcome.RecordAccepted()
			p.state.batch = append(p.state.batch, rec)
		}

		if err := p.tick(); err != nil {
			return &stopError{err: err}
		}
	}
}

// resolveColumns fixes the columns on the first record and rejects
// action-level columns for package results.
func (p *AdaptivePager) resolveColumns(rt domain.ReturnType) error {
	if p.projector == nil {
		attrs, headers := p.opts.Attributes, p.opts.Attributes
		if len(attrs) == 0 {
			if rt == domain.ReturnActions {
				attrs, headers = domain.DefaultActionAttributes, domain.DefaultActionHeaders
			} else {
				attrs, headers = domain.DefaultPackageAttributes, domain.DefaultPackageHeaders
			}
		}
		logger.Debug("Columns: %v", attrs)
		p.projector = NewProjector(attrs, p.opts.Projector)
		p.renderer.SetColumns(attrs, headers)
	}

	if rt == domain.ReturnPackages {
		for _, a := range p.projector.Attributes() {
			if domain.IsActionLevel(a) {
				return domain.ErrActionAttrsWithPackages
			}
		}
	}
	return nil
}

// tick checks the collection window after a record.
func (p *AdaptivePager) tick() error {
	if p.clock.Now().Sub(p.state.start) <= p.state.timeout {
		return nil
	}
	if len(p.state.batch) > p.cfg.MinPageSize {
		return p.flush()
	}
	p.state.timeout = min(p.state.timeout*2, p.cfg.MaxTimeout)
	logger.Debug("Page window raised to %s", p.state.timeout)
	return nil
}

// flush projects and renders the batch, then restarts the window.
func (p *AdaptivePager) flush() error {
	batch := p.state.batch
	p.state.batch = nil
	p.state.start = p.clock.Now()

	if p.projector == nil || len(batch) == 0 {
		return nil
	}

	lines := p.projector.Project(batch, p.state.last)
	if len(lines) == 0 {
		return nil
	}
	logger.Debug("Rendering page of %d lines from %d records", len(lines), len(batch))
	if err := p.renderer.RenderPage(lines); err != nil {
		return err
	}
	p.state.last = lines[len(lines)-1]
	p.state.pages++
	return nil
}
