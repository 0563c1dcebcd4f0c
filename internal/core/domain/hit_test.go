package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAction(t *testing.T, s string) *Action {
	t.Helper()
	a, err := ParseAction(s)
	require.NoError(t, err)
	return a
}

func TestHitRecords_Actions(t *testing.T) {
	pkg := NewPackageRef("example", "shell/bash", "5.1")
	file := mustAction(t, "file path=usr/bin/bash")

	q := Query{Terms: []string{"bash"}, ReturnType: ReturnActions}
	hits := []IndexHit{
		{Package: pkg, Publisher: "example", Action: file, Token: Token{Kind: TokenBasename, Value: "bash"}, Term: "bash"},
	}

	records := HitRecords(q, hits)
	require.Len(t, records, 1)
	assert.Equal(t, ReturnActions, records[0].ReturnType)
	assert.Equal(t, []string{pkg.String(), TokenBasename, "file path=usr/bin/bash"}, records[0].Fields)
	assert.Equal(t, "example", records[0].Publisher)
}

func TestHitRecords_PackagesDeduplicated(t *testing.T) {
	pkg := NewPackageRef("example", "editor/vim", "9.0")
	a := mustAction(t, "file path=usr/bin/vim")
	b := mustAction(t, "link path=usr/bin/vi target=vim")

	q := Query{Terms: []string{"vi*"}, ReturnType: ReturnPackages}
	hits := []IndexHit{
		{Package: pkg, Action: a, Token: Token{Kind: TokenBasename, Value: "vim"}, Term: "vi*"},
		{Package: pkg, Action: b, Token: Token{Kind: TokenBasename, Value: "vi"}, Term: "vi*"},
	}

	records := HitRecords(q, hits)
	require.Len(t, records, 1)
	assert.Equal(t, []string{pkg.String()}, records[0].Fields)
}

func TestHitRecords_RequiresEveryTerm(t *testing.T) {
	vim := NewPackageRef("", "editor/vim", "9.0")
	ls := NewPackageRef("", "file/gnu-coreutils", "9.1")
	a := mustAction(t, "file path=usr/bin/vim")
	b := mustAction(t, "file path=usr/share/vim/vimrc")
	c := mustAction(t, "file path=usr/bin/vimdiff")

	q := Query{Terms: []string{"vim", "vimrc"}, ReturnType: ReturnActions}
	hits := []IndexHit{
		{Package: vim, Action: a, Token: Token{Kind: TokenBasename, Value: "vim"}, Term: "vim"},
		{Package: vim, Action: b, Token: Token{Kind: TokenBasename, Value: "vimrc"}, Term: "vimrc"},
		{Package: ls, Action: c, Token: Token{Kind: TokenBasename, Value: "vim"}, Term: "vim"},
	}

	records := HitRecords(q, hits)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, vim.String(), r.Fields[0])
	}
}
