package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pkgsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
)

// fakeClock only moves when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// slowSource advances the clock before every pull, like a slow network read.
type slowSource struct {
	driven.RecordSource
	clock *fakeClock
	delay time.Duration
}

func (s *slowSource) Next(ctx context.Context) (domain.RawRecord, error) {
	s.clock.Advance(s.delay)
	return s.RecordSource.Next(ctx)
}

// pageRecorder captures each rendered page.
type pageRecorder struct {
	attrs   []string
	headers []string
	pages   [][]domain.Line
}

func (r *pageRecorder) SetColumns(attrs, headers []string) {
	r.attrs, r.headers = attrs, headers
}

func (r *pageRecorder) RenderPage(lines []domain.Line) error {
	r.pages = append(r.pages, lines)
	return nil
}

func (r *pageRecorder) lines() []domain.Line {
	var all []domain.Line
	for _, p := range r.pages {
		all = append(all, p...)
	}
	return all
}

func fileRecords(paths ...string) []domain.RawRecord {
	recs := make([]domain.RawRecord, 0, len(paths))
	for _, p := range paths {
		recs = append(recs, actionRecord(bashFMRI, "path", "file path="+p))
	}
	return recs
}

func pathOptions() PagerOptions {
	return PagerOptions{
		Attributes: []string{"path"},
		Projector:  ProjectorOptions{ShowAll: true, RemoveDuplicates: true},
	}
}

func TestAdaptivePager_TimeoutDoublesThenPages(t *testing.T) {
	clock := newFakeClock()
	var paths []string
	for i := 0; i < 12; i++ {
		paths = append(paths, fmt.Sprintf("f%02d", i))
	}
	src := &slowSource{RecordSource: memory.NewRecordSource("slow", fileRecords(paths...), nil), clock: clock, delay: time.Second}

	rec := &pageRecorder{}
	pager := NewAdaptivePager(DefaultPagerConfig(), clock, rec, NewOutcomeAggregator(nil), pathOptions())
	require.NoError(t, pager.Run(context.Background(), []driven.RecordSource{src}))

	// 0.5s -> 1s -> 2s -> 4s, page after the sixth record, then 5s and
	// a page after the twelfth.
	require.Len(t, rec.pages, 2)
	assert.Len(t, rec.pages[0], 6)
	assert.Len(t, rec.pages[1], 6)
	assert.Equal(t, 5*time.Second, pager.Timeout())
	assert.Equal(t, 2, pager.Pages())
}

func TestAdaptivePager_FastSourceIsOnePage(t *testing.T) {
	clock := newFakeClock()
	src := memory.NewRecordSource("fast", fileRecords("a", "b", "c", "d", "e", "f", "g", "h"), nil)

	rec := &pageRecorder{}
	pager := NewAdaptivePager(DefaultPagerConfig(), clock, rec, NewOutcomeAggregator(nil), pathOptions())
	require.NoError(t, pager.Run(context.Background(), []driven.RecordSource{src}))

	require.Len(t, rec.pages, 1)
	assert.Len(t, rec.pages[0], 8)
	assert.Equal(t, 500*time.Millisecond, pager.Timeout())
}

func TestAdaptivePager_PaginationDoesNotChangeOutput(t *testing.T) {
	paths := []string{"a", "a", "b", "b", "b", "c", "c", "c", "c", "d", "d", "e", "e", "e", "f", "f", "f", "g"}

	render := func(delay time.Duration, minPage int) (string, int) {
		clock := newFakeClock()
		src := &slowSource{RecordSource: memory.NewRecordSource("s", fileRecords(paths...), nil), clock: clock, delay: delay}
		var buf bytes.Buffer
		cfg := PagerConfig{PageTimeout: 500 * time.Millisecond, MaxTimeout: time.Second, MinPageSize: minPage}
		pager := NewAdaptivePager(cfg, clock, NewColumnFormatter(&buf, false), NewOutcomeAggregator(nil), pathOptions())
		require.NoError(t, pager.Run(context.Background(), []driven.RecordSource{src}))
		return buf.String(), pager.Pages()
	}

	single, singlePages := render(0, 5)
	paged, pagedPages := render(time.Second, 1)

	assert.Equal(t, 1, singlePages)
	assert.Greater(t, pagedPages, 1)
	assert.Equal(t, single, paged)
	assert.Equal(t, "a\nb\nc\nd\ne\nf\ng\n", single)
}

func TestAdaptivePager_MalformedRecordsMakePartial(t *testing.T) {
	clock := newFakeClock()
	malformed := domain.RawRecord{Publisher: "example", ReturnType: domain.ReturnActions, Fields: []string{"only-one"}}

	first := memory.NewRecordSource("first",
		append([]domain.RawRecord{malformed, malformed, malformed}, fileRecords("a", "b")...), nil)
	second := memory.NewRecordSource("second", fileRecords("c", "d", "e", "f"), nil)

	var diag bytes.Buffer
	outcome := NewOutcomeAggregator(&diag)
	rec := &pageRecorder{}
	pager := NewAdaptivePager(DefaultPagerConfig(), clock, rec, outcome, pathOptions())

	require.NoError(t, pager.Run(context.Background(), []driven.RecordSource{first, second}))

	assert.Len(t, rec.lines(), 6)
	assert.True(t, outcome.Good())
	assert.True(t, outcome.Bad())
	assert.Equal(t, domain.ExitPartial, outcome.Finish())
	assert.Equal(t, 3, strings.Count(diag.String(), DiagnosticPrefix))
	assert.Equal(t, 3, strings.Count(diag.String(), "malformed result"))
}

func TestAdaptivePager_MalformedAndFailingSources(t *testing.T) {
	clock := newFakeClock()
	malformed := domain.RawRecord{Publisher: "example", ReturnType: domain.ReturnActions, Fields: []string{"only-one"}}

	first := memory.NewRecordSource("first",
		append([]domain.RawRecord{malformed, malformed, malformed}, fileRecords("a", "b")...), nil)
	serverErr := &domain.ServerError{Publisher: "second", Origin: "http://second.example.com", Err: domain.ErrServerFailed}
	second := memory.NewRecordSource("second", fileRecords("c", "d", "e", "f"), serverErr)
	third := memory.NewRecordSource("third", fileRecords("g"), nil)

	var diag bytes.Buffer
	outcome := NewOutcomeAggregator(&diag)
	rec := &pageRecorder{}
	pager := NewAdaptivePager(DefaultPagerConfig(), clock, rec, outcome, pathOptions())

	require.NoError(t, pager.Run(context.Background(), []driven.RecordSource{first, second, third}))

	assert.Equal(t, []domain.Line{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}, {"f"}, {"g"}}, rec.lines())
	assert.Equal(t, 3, strings.Count(diag.String(), "malformed result"))

	status := outcome.Finish()
	assert.Equal(t, domain.ExitPartial, status)
	assert.Contains(t, diag.String(), "Some servers failed to respond appropriately")
	assert.True(t, first.Closed())
	assert.True(t, second.Closed())
	assert.True(t, third.Closed())
}

func TestAdaptivePager_FatalErrorFlushesThenStops(t *testing.T) {
	clock := newFakeClock()
	local := memory.NewRecordSource("local", fileRecords("a", "b"), &domain.IndexCorruptedError{Cause: "hash mismatch"})
	remote := memory.NewRecordSource("remote", fileRecords("c"), nil)

	var diag bytes.Buffer
	outcome := NewOutcomeAggregator(&diag)
	rec := &pageRecorder{}
	pager := NewAdaptivePager(DefaultPagerConfig(), clock, rec, outcome, pathOptions())

	require.NoError(t, pager.Run(context.Background(), []driven.RecordSource{local, remote}))

	assert.Equal(t, []domain.Line{{"a"}, {"b"}}, rec.lines())
	assert.ErrorIs(t, outcome.Fatal(), domain.ErrIndexCorrupted)
	assert.True(t, remote.Closed())

	assert.Equal(t, domain.ExitOops, outcome.Finish())
	assert.Contains(t, diag.String(), "pkgsearch: The search index appears corrupted")
}

func TestAdaptivePager_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var diag bytes.Buffer
	outcome := NewOutcomeAggregator(&diag)
	pager := NewAdaptivePager(DefaultPagerConfig(), newFakeClock(), &pageRecorder{}, outcome, pathOptions())

	require.NoError(t, pager.Run(ctx, []driven.RecordSource{memory.NewRecordSource("s", fileRecords("a"), nil)}))
	assert.Equal(t, domain.ExitOops, outcome.Finish())
	assert.Empty(t, diag.String())
}

func TestAdaptivePager_DefaultColumnsFromFirstRecord(t *testing.T) {
	tests := []struct {
		name        string
		record      domain.RawRecord
		wantAttrs   []string
		wantHeaders []string
	}{
		{"actions", actionRecord(bashFMRI, "basename", "file path=usr/bin/bash"), domain.DefaultActionAttributes, domain.DefaultActionHeaders},
		{"packages", packageRecord(bashFMRI), domain.DefaultPackageAttributes, domain.DefaultPackageHeaders},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &pageRecorder{}
			pager := NewAdaptivePager(DefaultPagerConfig(), newFakeClock(), rec, NewOutcomeAggregator(nil), PagerOptions{})
			src := memory.NewRecordSource("s", []domain.RawRecord{tt.record}, nil)

			require.NoError(t, pager.Run(context.Background(), []driven.RecordSource{src}))
			assert.Equal(t, tt.wantAttrs, rec.attrs)
			assert.Equal(t, tt.wantHeaders, rec.headers)
			assert.Len(t, rec.lines(), 1)
		})
	}
}

func TestAdaptivePager_ActionColumnsWithPackageResults(t *testing.T) {
	rec := &pageRecorder{}
	pager := NewAdaptivePager(DefaultPagerConfig(), newFakeClock(), rec, NewOutcomeAggregator(nil), PagerOptions{
		Attributes: []string{domain.AttrActionName},
	})
	src := memory.NewRecordSource("s", []domain.RawRecord{packageRecord(bashFMRI)}, nil)

	err := pager.Run(context.Background(), []driven.RecordSource{src})
	assert.ErrorIs(t, err, domain.ErrActionAttrsWithPackages)
	assert.Empty(t, rec.pages)
}

func TestPagerConfig_WithDefaults(t *testing.T) {
	cfg := PagerConfig{}.withDefaults()
	assert.Equal(t, 500*time.Millisecond, cfg.PageTimeout)
	assert.Equal(t, 5*time.Second, cfg.MaxTimeout)
	assert.Equal(t, 0, cfg.MinPageSize)

	cfg = PagerConfig{PageTimeout: 10 * time.Second, MinPageSize: -1}.withDefaults()
	assert.Equal(t, 10*time.Second, cfg.MaxTimeout)
	assert.Equal(t, 5, cfg.MinPageSize)
}
