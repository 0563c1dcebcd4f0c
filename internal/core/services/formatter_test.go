package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

func TestColumnFormatter_HeadersAndAlignment(t *testing.T) {
	var buf bytes.Buffer
	f := NewColumnFormatter(&buf, true)
	f.SetColumns([]string{"path", "size", domain.AttrPkgName}, nil)

	require.NoError(t, f.RenderPage([]domain.Line{
		{"usr/bin/ls", "1024", "core"},
		{"etc/motd", "7", "base"},
	}))

	assert.Equal(t, strings.Join([]string{
		"PATH       SIZE PKG.NAME",
		"usr/bin/ls 1024 core",
		"etc/motd      7 base",
		"",
	}, "\n"), buf.String())
}

func TestColumnFormatter_HeaderLabels(t *testing.T) {
	var buf bytes.Buffer
	f := NewColumnFormatter(&buf, true)
	f.SetColumns(domain.DefaultPackageAttributes, domain.DefaultPackageHeaders)

	require.NoError(t, f.RenderPage([]domain.Line{{"pkg:/shell/bash@5.1", "example"}}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "PACKAGE             PUBLISHER", lines[0])
}

func TestColumnFormatter_NoHeadersIsTabSeparated(t *testing.T) {
	var buf bytes.Buffer
	f := NewColumnFormatter(&buf, false)
	f.SetColumns([]string{"path", "mode"}, nil)

	require.NoError(t, f.RenderPage([]domain.Line{{"usr/bin/ls", "0555"}, {"a", ""}}))
	assert.Equal(t, "usr/bin/ls\t0555\na\n", buf.String())
}

func TestColumnFormatter_HeaderReprintedWhenLayoutMoves(t *testing.T) {
	var buf bytes.Buffer
	f := NewColumnFormatter(&buf, true)
	f.SetColumns([]string{"path", "mode"}, nil)

	require.NoError(t, f.RenderPage([]domain.Line{{"a", "0555"}}))
	// Only the last column grows: no new header.
	require.NoError(t, f.RenderPage([]domain.Line{{"b", "0555-long"}}))
	// The first column grows: header again.
	require.NoError(t, f.RenderPage([]domain.Line{{"usr/bin/longer", "1"}}))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "PATH"))
	assert.Equal(t, []int{14, 9}, f.Widths())
}

func TestColumnFormatter_WidthsOnlyGrow(t *testing.T) {
	var buf bytes.Buffer
	f := NewColumnFormatter(&buf, false)
	f.SetColumns([]string{"path"}, nil)

	f.Widen([]domain.Line{{"longest"}})
	changed := f.Widen([]domain.Line{{"x"}})
	assert.False(t, changed)
	assert.Equal(t, []int{7}, f.Widths())
}

func TestColumnFormatter_WideRunes(t *testing.T) {
	var buf bytes.Buffer
	f := NewColumnFormatter(&buf, true)
	f.SetColumns([]string{"name", "x"}, nil)

	require.NoError(t, f.RenderPage([]domain.Line{{"日本", "1"}, {"ab", "2"}}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ab   2", lines[2])
}

func TestColumnFormatter_EmptyPage(t *testing.T) {
	var buf bytes.Buffer
	f := NewColumnFormatter(&buf, true)
	f.SetColumns([]string{"path"}, nil)

	require.NoError(t, f.RenderPage(nil))
	assert.Empty(t, buf.String())
}

func TestGuessJustification(t *testing.T) {
	assert.Equal(t, domain.JustRight, guessJustification(domain.JustUnknown, " 42"))
	assert.Equal(t, domain.JustLeft, guessJustification(domain.JustUnknown, "0555x"))
	assert.Equal(t, domain.JustLeft, guessJustification(domain.JustLeft, "42"))
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONRenderer(&buf)
	r.SetColumns([]string{"path", domain.AttrPkgName}, nil)

	require.NoError(t, r.RenderPage([]domain.Line{{"usr/bin/ls", "core"}}))
	assert.JSONEq(t, `{"path":"usr/bin/ls","pkg.name":"core"}`, buf.String())
}
