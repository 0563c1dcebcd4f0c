package memory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
)

func testPackage(t *testing.T, name string, actions ...string) driven.PackageActions {
	t.Helper()
	pa := driven.PackageActions{
		Package:   domain.NewPackageRef("example", name, "1.0"),
		Publisher: "example",
	}
	for _, s := range actions {
		a, err := domain.ParseAction(s)
		require.NoError(t, err)
		pa.Actions = append(pa.Actions, a)
	}
	return pa
}

func drain(t *testing.T, src driven.RecordSource) ([]domain.RawRecord, error) {
	t.Helper()
	var out []domain.RawRecord
	for {
		rec, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func TestIndex_SearchBeforeRebuildIsSlow(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	require.NoError(t, idx.Import(ctx, testPackage(t, "shell/bash", "file path=usr/bin/bash")))

	src, err := idx.Search(ctx, domain.Query{Terms: []string{"bash"}})
	require.NoError(t, err)

	records, err := drain(t, src)
	assert.ErrorIs(t, err, domain.ErrSlowSearchUsed)
	assert.Len(t, records, 1)
}

func TestIndex_SearchAfterRebuild(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	require.NoError(t, idx.Import(ctx, testPackage(t, "shell/bash", "file path=usr/bin/bash", "dir path=usr/bin")))
	require.NoError(t, idx.Rebuild(ctx))

	src, err := idx.Search(ctx, domain.Query{Terms: []string{"usr/bin/bash"}})
	require.NoError(t, err)

	records, err := drain(t, src)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "path", records[0].Fields[1])
}

func TestIndex_ImportReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	require.NoError(t, idx.Import(ctx, testPackage(t, "editor/vim", "file path=usr/bin/vim")))
	require.NoError(t, idx.Import(ctx, testPackage(t, "editor/vim", "file path=usr/bin/vi")))

	pkgs, err := idx.Contents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "usr/bin/vi", pkgs[0].Actions[0].Key())
}

func TestIndex_ContentsPatterns(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	require.NoError(t, idx.Import(ctx, testPackage(t, "editor/vim", "file path=usr/bin/vim")))
	require.NoError(t, idx.Import(ctx, testPackage(t, "shell/bash", "file path=usr/bin/bash")))

	pkgs, err := idx.Contents(ctx, []string{"editor/*"})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "editor/vim", pkgs[0].Package.Name())
}

func TestRecordSource(t *testing.T) {
	recs := []domain.RawRecord{{Fields: []string{"a"}}, {Fields: []string{"b"}}}

	src := NewRecordSource("test", recs, nil)
	assert.Equal(t, "test", src.Name())
	got, err := drain(t, src)
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	failing := NewRecordSource("broken", recs[:1], domain.ErrServerFailed)
	got, err = drain(t, failing)
	assert.ErrorIs(t, err, domain.ErrServerFailed)
	assert.Len(t, got, 1)

	require.NoError(t, failing.Close())
	assert.True(t, failing.Closed())
}
