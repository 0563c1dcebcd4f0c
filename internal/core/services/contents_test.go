package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pkgsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
)

func contentsIndex(t *testing.T) *memory.Index {
	t.Helper()
	ctx := context.Background()
	idx := memory.NewIndex()
	svc := NewIndexService(idx)
	for _, manifest := range []string{
		"set name=pkg.fmri value=pkg://example/shell/bash@5.1\nfile path=usr/bin/bash size=1200\ndir path=usr/bin\nfile path=etc/bashrc size=90",
		"set name=pkg.fmri value=pkg://example/editor/vim@9.0\nfile path=usr/bin/vim size=30000",
	} {
		_, err := svc.Import(ctx, strings.NewReader(manifest))
		require.NoError(t, err)
	}
	return idx
}

func TestContentsService_DefaultListing(t *testing.T) {
	svc := NewContentsService(contentsIndex(t))

	var out bytes.Buffer
	printed, err := svc.List(context.Background(), domain.ContentsOptions{DisplayHeaders: true}, &out)
	require.NoError(t, err)
	assert.True(t, printed)
	assert.Equal(t, "PATH\netc/bashrc\nusr/bin\nusr/bin/bash\nusr/bin/vim\n", out.String())
}

func TestContentsService_NumericSort(t *testing.T) {
	svc := NewContentsService(contentsIndex(t))

	var out bytes.Buffer
	printed, err := svc.List(context.Background(), domain.ContentsOptions{
		Attributes:     []string{"path", "size"},
		SortAttributes: []string{"size"},
		ActionTypes:    []string{"file"},
	}, &out)
	require.NoError(t, err)
	assert.True(t, printed)
	assert.Equal(t, "etc/bashrc\t90\nusr/bin/bash\t1200\nusr/bin/vim\t30000\n", out.String())
}

func TestSortLines_Numeric(t *testing.T) {
	lines := []domain.Line{
		{"b", "9223372036854775807"},
		{"a", " 12 "},
		{"c", "-9223372036854775808"},
		{"d", "x"},
		{"e", "3"},
	}
	sortLines(lines, 1, true)

	var got []string
	for _, l := range lines {
		got = append(got, l[0])
	}
	assert.Equal(t, []string{"c", "d", "e", "a", "b"}, got)
	assert.Equal(t, 12, atoiOrZero(" 12 "))
}

func TestContentsService_PackagePatterns(t *testing.T) {
	svc := NewContentsService(contentsIndex(t))

	var out bytes.Buffer
	_, err := svc.List(context.Background(), domain.ContentsOptions{
		Packages:   []string{"editor/*"},
		Attributes: []string{domain.AttrPkgName, "path"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "editor/vim\neditor/vim\tusr/bin/vim\n", out.String())
}

func TestContentsService_NothingPrinted(t *testing.T) {
	svc := NewContentsService(contentsIndex(t))

	var out bytes.Buffer
	printed, err := svc.List(context.Background(), domain.ContentsOptions{
		Attributes:     []string{"mode"},
		DisplayHeaders: true,
	}, &out)
	require.NoError(t, err)
	assert.False(t, printed)
	assert.Empty(t, out.String())
}

func TestContentsService_InvalidAttribute(t *testing.T) {
	svc := NewContentsService(contentsIndex(t))

	var out bytes.Buffer
	_, err := svc.List(context.Background(), domain.ContentsOptions{Attributes: []string{"action.bogus"}}, &out)
	assert.ErrorIs(t, err, domain.ErrInvalidAttribute)

	_, err = svc.List(context.Background(), domain.ContentsOptions{SortAttributes: []string{"action.nope"}}, &out)
	assert.ErrorIs(t, err, domain.ErrInvalidAttribute)
}

// failingIndex fails every call.
type failingIndex struct {
	driven.LocalIndex
}

func (failingIndex) Contents(context.Context, []string) ([]driven.PackageActions, error) {
	return nil, errors.New("database is locked")
}

func TestContentsService_IndexError(t *testing.T) {
	svc := NewContentsService(failingIndex{})

	var out bytes.Buffer
	_, err := svc.List(context.Background(), domain.ContentsOptions{}, &out)
	assert.ErrorContains(t, err, "database is locked")
}
