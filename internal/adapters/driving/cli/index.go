package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the local search index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the local search index",
	Long: `Regenerates the search tokens of every imported package. Run this after
importing packages, or when searches report a corrupted index.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

var indexImportCmd = &cobra.Command{
	Use:   "import manifest...",
	Short: "Import package manifests",
	Long: `Imports package manifests into the local index. Each manifest lists one
action per line and names its package with a "set name=pkg.fmri" action.
Use "-" to read a manifest from standard input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexImport,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexImportCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if err := indexService.Rebuild(cmd.Context()); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	cmd.Println("Index rebuilt.")
	return nil
}

func runIndexImport(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	for _, name := range args {
		if err := importManifest(cmd, name); err != nil {
			return fmt.Errorf("importing %s: %w", name, err)
		}
	}
	return nil
}

func importManifest(cmd *cobra.Command, name string) error {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	pkg, err := indexService.Import(cmd.Context(), r)
	if err != nil {
		return err
	}
	cmd.Printf("Imported %s\n", pkg.String())
	return nil
}
