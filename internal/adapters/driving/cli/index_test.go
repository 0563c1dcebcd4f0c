package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
)

func TestIndexImportCmd_FromFile(t *testing.T) {
	idx, _ := setupTestServices(t)

	manifest := filepath.Join(t.TempDir(), "vim.p5m")
	require.NoError(t, os.WriteFile(manifest, []byte(
		"set name=pkg.fmri value=pkg://example/editor/vim@9.0\nfile path=usr/bin/vim\n"), 0o600))

	stdout, _, code := execute(t, "index", "import", manifest)

	assert.Equal(t, 0, code)
	assert.Equal(t, "Imported pkg://example/editor/vim@9.0\n", stdout)

	pkgs, err := idx.Contents(context.Background(), []string{"editor/vim"})
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestIndexImportCmd_FromStdin(t *testing.T) {
	setupTestServices(t)

	rootCmd.SetIn(strings.NewReader("set name=pkg.fmri value=pkg://example/editor/nano@7\nfile path=usr/bin/nano\n"))
	defer rootCmd.SetIn(nil)

	stdout, _, code := execute(t, "index", "import", "-")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "editor/nano@7")
}

func TestIndexImportCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, stderr, code := execute(t, "index", "import", filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "pkgsearch: importing")
}

func TestIndexRebuildCmd(t *testing.T) {
	idx, _ := setupTestServices(t)

	stdout, _, code := execute(t, "index", "rebuild")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Index rebuilt.\n", stdout)

	src, err := idx.Search(context.Background(), domain.Query{Terms: []string{"bash"}})
	require.NoError(t, err)
	defer src.Close()
	_, err = src.Next(context.Background())
	assert.NoError(t, err)
}
